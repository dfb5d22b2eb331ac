package cache

import (
	"context"
	"errors"

	"github.com/Zia-ullah-khan/qless/internal/domain"
)

// CatalogCache holds read-mostly catalog lookups. Transaction and receipt
// state is never cached.
type CatalogCache interface {
	GetStores(ctx context.Context) ([]*domain.Store, error)
	SetStores(ctx context.Context, stores []*domain.Store) error
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)
	SetStore(ctx context.Context, store *domain.Store) error
	GetStoreProducts(ctx context.Context, storeID string) ([]*domain.Product, error)
	SetStoreProducts(ctx context.Context, storeID string, products []*domain.Product) error
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	SetProductByBarcode(ctx context.Context, product *domain.Product) error

	InvalidateStore(ctx context.Context, storeID string) error
	InvalidateProduct(ctx context.Context, product *domain.Product) error
}

var ErrCacheMiss = errors.New("cache miss")
