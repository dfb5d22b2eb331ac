package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/cache"
	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type CatalogService struct {
	stores   repository.StoreRepository
	products repository.ProductRepository
	cache    cache.CatalogCache
	sfg      singleflight.Group // Prevents cache stampede

	// gen counts invalidations. Fills hold mu for reading and invalidations
	// hold it for writing, so a fill never lands after a newer invalidation.
	mu  sync.RWMutex
	gen uint64
}

func NewCatalogService(stores repository.StoreRepository, products repository.ProductRepository, cache cache.CatalogCache) *CatalogService {
	return &CatalogService{
		stores:   stores,
		products: products,
		cache:    cache,
	}
}

type NewProduct struct {
	StoreID      string
	Name         string
	Price        decimal.Decimal
	SKU          string
	BarcodeValue string
	ImageURL     string
	Description  string
}

func (s *CatalogService) ListStores(ctx context.Context) ([]*domain.Store, error) {
	v, err := s.readThrough(ctx, "stores",
		func() (interface{}, error) { return s.cache.GetStores(ctx) },
		func() (interface{}, error) { return s.stores.ListStores(ctx) },
		func(ctx context.Context, v interface{}) error { return s.cache.SetStores(ctx, v.([]*domain.Store)) },
	)
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Store), nil
}

func (s *CatalogService) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	v, err := s.readThrough(ctx, "store:"+storeID,
		func() (interface{}, error) { return s.cache.GetStore(ctx, storeID) },
		func() (interface{}, error) { return s.stores.GetStore(ctx, storeID) },
		func(ctx context.Context, v interface{}) error { return s.cache.SetStore(ctx, v.(*domain.Store)) },
	)
	if err != nil {
		return nil, mapRepoError(err)
	}

	store := v.(*domain.Store)
	if !store.Available() {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

func (s *CatalogService) ListStoreProducts(ctx context.Context, storeID string) ([]*domain.Product, error) {
	if _, err := s.GetStore(ctx, storeID); err != nil {
		return nil, err
	}

	v, err := s.readThrough(ctx, "products:"+storeID,
		func() (interface{}, error) { return s.cache.GetStoreProducts(ctx, storeID) },
		func() (interface{}, error) { return s.products.ListStoreProducts(ctx, storeID) },
		func(ctx context.Context, v interface{}) error {
			return s.cache.SetStoreProducts(ctx, storeID, v.([]*domain.Product))
		},
	)
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}

// ScanBarcode resolves a scanned barcode. When storeID is set the product must belong to it.
func (s *CatalogService) ScanBarcode(ctx context.Context, barcode, storeID string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, validationf("barcode is required")
	}

	v, err := s.readThrough(ctx, "barcode:"+barcode,
		func() (interface{}, error) { return s.cache.GetProductByBarcode(ctx, barcode) },
		func() (interface{}, error) { return s.products.GetProductByBarcode(ctx, barcode) },
		func(ctx context.Context, v interface{}) error {
			return s.cache.SetProductByBarcode(ctx, v.(*domain.Product))
		},
	)
	if err != nil {
		return nil, mapRepoError(err)
	}

	product := v.(*domain.Product)
	if !product.Available() {
		return nil, ErrProductNotFound
	}
	if storeID != "" && product.StoreID != storeID {
		return nil, ErrWrongStore
	}
	return product, nil
}

func (s *CatalogService) CreateStore(ctx context.Context, name, logoURL string) (*domain.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("store name is required")
	}

	store := &domain.Store{Name: name, LogoURL: logoURL, IsActive: true}
	if err := s.stores.CreateStore(ctx, store); err != nil {
		return nil, err
	}

	s.invalidate(func(ctx context.Context) error { return s.cache.InvalidateStore(ctx, store.ID) })
	return store, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, np NewProduct) (*domain.Product, error) {
	if strings.TrimSpace(np.Name) == "" || np.StoreID == "" {
		return nil, validationf("name, price, and store ID are required")
	}
	if !np.Price.IsPositive() {
		return nil, validationf("price must be greater than zero")
	}

	store, err := s.stores.GetStore(ctx, np.StoreID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if store.IsDeleted {
		return nil, ErrStoreNotFound
	}

	product := &domain.Product{
		StoreID:      np.StoreID,
		Name:         strings.TrimSpace(np.Name),
		Price:        np.Price,
		SKU:          np.SKU,
		BarcodeValue: strings.TrimSpace(np.BarcodeValue),
		ImageURL:     np.ImageURL,
		Description:  np.Description,
		IsActive:     true,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, mapRepoError(err)
	}

	s.invalidate(func(ctx context.Context) error { return s.cache.InvalidateProduct(ctx, product) })
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Price != nil && !patch.Price.IsPositive() {
		return nil, validationf("price must be greater than zero")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, validationf("name cannot be empty")
	}

	before, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	after, err := s.products.UpdateProduct(ctx, productID, patch)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.invalidate(func(ctx context.Context) error {
		return errors.Join(s.cache.InvalidateProduct(ctx, before), s.cache.InvalidateProduct(ctx, after))
	})
	return after, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return mapRepoError(err)
	}

	if err := s.products.SoftDeleteProduct(ctx, productID); err != nil {
		return mapRepoError(err)
	}

	s.invalidate(func(ctx context.Context) error { return s.cache.InvalidateProduct(ctx, product) })
	return nil
}

// readThrough serves from cache, falling back to the repository and filling
// the cache before returning. Concurrent misses for one key share a single
// load. A fill is dropped when an invalidation ran after the repository read
// started, since the value may predate that write.
func (s *CatalogService) readThrough(
	ctx context.Context,
	key string,
	fromCache func() (interface{}, error),
	fromRepo func() (interface{}, error),
	fill func(ctx context.Context, v interface{}) error,
) (interface{}, error) {
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		cached, err := fromCache()
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "catalog cache get error", "key", key, "error", err)
		}

		gen := s.generation()
		v, err := fromRepo()
		if err != nil {
			return nil, err
		}

		s.fill(ctx, key, gen, v, fill)
		return v, nil
	})
	return v, err
}

func (s *CatalogService) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *CatalogService) fill(ctx context.Context, key string, gen uint64, v interface{}, fill func(ctx context.Context, v interface{}) error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != gen {
		slog.DebugContext(ctx, "catalog cache fill skipped", "key", key)
		return
	}

	fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := fill(fillCtx, v); err != nil {
		slog.WarnContext(ctx, "catalog cache set error", "key", key, "error", err)
	}
}

func (s *CatalogService) invalidate(fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Warn("catalog cache invalidate error", "error", err)
	}
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStoreNotFound):
		return ErrStoreNotFound
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrCartNotFound):
		return ErrCartNotFound
	case errors.Is(err, repository.ErrItemNotFound):
		return ErrItemNotFound
	case errors.Is(err, repository.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, repository.ErrReceiptNotFound):
		return ErrReceiptNotFound
	case errors.Is(err, repository.ErrDuplicateBarcode):
		return ErrDuplicateBarcode
	default:
		return err
	}
}
