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

type mongoTransactionRepository struct {
	transactions *mongo.Collection
	items        *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepository{
		transactions: db.Collection("transactions"),
		items:        db.Collection("transaction_items"),
	}
}

func (m *mongoTransactionRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	now := time.Now()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = domain.TransactionStatusPending
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if _, err := m.transactions.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (m *mongoTransactionRepository) InsertItems(ctx context.Context, items []*domain.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.TotalPrice = item.LineTotal()
		item.CreatedAt = now
		docs = append(docs, item)
	}

	if _, err := m.items.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert transaction items: %w", err)
	}
	return nil
}

func (m *mongoTransactionRepository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := m.transactions.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (m *mongoTransactionRepository) GetItems(ctx context.Context, transactionID string) ([]*domain.TransactionItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.items.Find(ctx, bson.M{"transaction_id": transactionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction items: %w", err)
	}

	items := make([]*domain.TransactionItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode transaction items: %w", err)
	}
	return items, nil
}

func (m *mongoTransactionRepository) MarkPaid(ctx context.Context, id string, update domain.PaymentUpdate) error {
	set := bson.M{
		"status":            domain.TransactionStatusPaid,
		"payment_intent_id": update.PaymentIntentID,
		"updated_at":        time.Now(),
	}
	if update.PaymentProvider != "" {
		set["payment_provider"] = update.PaymentProvider
	}
	if update.PaymentReference != "" {
		set["payment_reference"] = update.PaymentReference
	}

	return m.transition(ctx, id, set)
}

func (m *mongoTransactionRepository) MarkFailed(ctx context.Context, id, reason string) error {
	set := bson.M{
		"status":     domain.TransactionStatusFailed,
		"updated_at": time.Now(),
	}
	if reason != "" {
		set["failure_reason"] = reason
	}

	return m.transition(ctx, id, set)
}

// transition applies set only while the transaction is still PENDING.
func (m *mongoTransactionRepository) transition(ctx context.Context, id string, set bson.M) error {
	filter := bson.M{"_id": id, "status": domain.TransactionStatusPending}

	result, err := m.transactions.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (m *mongoTransactionRepository) CreateIndexes(ctx context.Context) error {
	txIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := m.transactions.Indexes().CreateMany(ctx, txIndexes); err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}

	itemIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "transaction_id", Value: 1}}},
	}
	if _, err := m.items.Indexes().CreateMany(ctx, itemIndexes); err != nil {
		return fmt.Errorf("failed to create transaction item indexes: %w", err)
	}
	return nil
}
