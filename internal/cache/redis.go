package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 5 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) GetStores(ctx context.Context) ([]*domain.Store, error) {
	var stores []*domain.Store
	if err := r.get(ctx, storesKey(), &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *RedisCache) SetStores(ctx context.Context, stores []*domain.Store) error {
	return r.set(ctx, storesKey(), stores)
}

func (r *RedisCache) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	var store domain.Store
	if err := r.get(ctx, storeKey(storeID), &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *RedisCache) SetStore(ctx context.Context, store *domain.Store) error {
	return r.set(ctx, storeKey(store.ID), store)
}

func (r *RedisCache) GetStoreProducts(ctx context.Context, storeID string) ([]*domain.Product, error) {
	var products []*domain.Product
	if err := r.get(ctx, storeProductsKey(storeID), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RedisCache) SetStoreProducts(ctx context.Context, storeID string, products []*domain.Product) error {
	return r.set(ctx, storeProductsKey(storeID), products)
}

func (r *RedisCache) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var product domain.Product
	if err := r.get(ctx, barcodeKey(barcode), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *RedisCache) SetProductByBarcode(ctx context.Context, product *domain.Product) error {
	return r.set(ctx, barcodeKey(product.BarcodeValue), product)
}

func (r *RedisCache) InvalidateStore(ctx context.Context, storeID string) error {
	return r.delete(ctx, storesKey(), storeKey(storeID), storeProductsKey(storeID))
}

func (r *RedisCache) InvalidateProduct(ctx context.Context, product *domain.Product) error {
	keys := []string{storeProductsKey(product.StoreID)}
	if product.BarcodeValue != "" {
		keys = append(keys, barcodeKey(product.BarcodeValue))
	}
	return r.delete(ctx, keys...)
}

func (r *RedisCache) get(ctx context.Context, key string, dst interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, key, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) delete(ctx context.Context, keys ...string) error {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storesKey() string {
	return "catalog:stores"
}

func storeKey(storeID string) string {
	return fmt.Sprintf("catalog:store:%s", storeID)
}

func storeProductsKey(storeID string) string {
	return fmt.Sprintf("catalog:store:%s:products", storeID)
}

func barcodeKey(barcode string) string {
	return fmt.Sprintf("catalog:barcode:%s", barcode)
}
