package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	return &mongoOutboxRepository{collection: db.Collection("outbox_events")}
}

func (m *mongoOutboxRepository) AddEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error {
	event := OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}

	if _, err := m.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to add outbox event: %w", err)
	}
	return nil
}

func (m *mongoOutboxRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	filter := bson.M{"processed_at": bson.M{"$exists": false}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get unprocessed events: %w", err)
	}

	var events []*OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}
	return events, nil
}

func (m *mongoOutboxRepository) MarkEventAsProcessed(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"processed_at": time.Now()}}
	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}

func (m *mongoOutboxRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "processed_at", Value: 1}, {Key: "created_at", Value: 1}}},
		{
			Keys:    bson.D{{Key: "processed_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7 * 24 * 60 * 60), // processed events kept 7 days
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
