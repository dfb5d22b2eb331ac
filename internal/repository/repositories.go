package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories groups every collection the service reads and writes.
type Repositories struct {
	Stores       StoreRepository
	Products     ProductRepository
	Carts        CartRepository
	Transactions TransactionRepository
	Receipts     ReceiptRepository
	Outbox       OutboxRepository
}

type indexer interface {
	CreateIndexes(ctx context.Context) error
}

func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Stores:       NewStoreRepository(db),
		Products:     NewProductRepository(db),
		Carts:        NewCartRepository(db),
		Transactions: NewTransactionRepository(db),
		Receipts:     NewReceiptRepository(db),
		Outbox:       NewOutboxRepository(db),
	}
}

// CreateIndexes creates the indexes of every collection. The unique indexes
// on receipts and active carts are required for correctness, not just speed.
func (r *Repositories) CreateIndexes(ctx context.Context) error {
	for _, repo := range []interface{}{r.Stores, r.Products, r.Carts, r.Transactions, r.Receipts, r.Outbox} {
		if ix, ok := repo.(indexer); ok {
			if err := ix.CreateIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
