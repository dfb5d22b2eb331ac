package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReceiptRepository struct {
	collection *mongo.Collection
}

func NewReceiptRepository(db *mongo.Database) ReceiptRepository {
	return &mongoReceiptRepository{collection: db.Collection("qr_receipts")}
}

func (m *mongoReceiptRepository) CreateReceipt(ctx context.Context, receipt *domain.QrReceipt) error {
	now := time.Now()
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.Status == "" {
		receipt.Status = domain.QRStatusValid
	}
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, receipt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrReceiptExists
		}
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

func (m *mongoReceiptRepository) GetReceiptByTransaction(ctx context.Context, transactionID string) (*domain.QrReceipt, error) {
	return m.findOne(ctx, bson.M{"transaction_id": transactionID})
}

func (m *mongoReceiptRepository) GetReceiptByToken(ctx context.Context, token string) (*domain.QrReceipt, error) {
	return m.findOne(ctx, bson.M{"qr_token": token})
}

func (m *mongoReceiptRepository) findOne(ctx context.Context, filter bson.M) (*domain.QrReceipt, error) {
	var receipt domain.QrReceipt
	err := m.collection.FindOne(ctx, filter).Decode(&receipt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (m *mongoReceiptRepository) MarkUsed(ctx context.Context, id string, now time.Time, verifiedBy string) error {
	filter := bson.M{
		"_id":        id,
		"status":     domain.QRStatusValid,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"status":      domain.QRStatusUsed,
		"verified_at": now,
		"verified_by": verifiedBy,
		"updated_at":  now,
	}}

	return m.compareAndSet(ctx, filter, update)
}

func (m *mongoReceiptRepository) MarkExpired(ctx context.Context, id string, now time.Time) error {
	filter := bson.M{"_id": id, "status": domain.QRStatusValid}
	update := bson.M{"$set": bson.M{
		"status":     domain.QRStatusExpired,
		"updated_at": now,
	}}

	return m.compareAndSet(ctx, filter, update)
}

func (m *mongoReceiptRepository) compareAndSet(ctx context.Context, filter, update bson.M) error {
	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update receipt status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (m *mongoReceiptRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "qr_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create receipt indexes: %w", err)
	}
	return nil
}
