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

type mongoStoreRepository struct {
	collection *mongo.Collection
}

func NewStoreRepository(db *mongo.Database) StoreRepository {
	return &mongoStoreRepository{collection: db.Collection("stores")}
}

func (m *mongoStoreRepository) CreateStore(ctx context.Context, store *domain.Store) error {
	now := time.Now()
	if store.ID == "" {
		store.ID = uuid.NewString()
	}
	store.CreatedAt = now
	store.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, store); err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

func (m *mongoStoreRepository) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	var store domain.Store
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&store)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}

func (m *mongoStoreRepository) ListStores(ctx context.Context) ([]*domain.Store, error) {
	filter := bson.M{"is_active": true, "is_deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	stores := make([]*domain.Store, 0)
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode stores: %w", err)
	}
	return stores, nil
}

func (m *mongoStoreRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "is_deleted", Value: 1}, {Key: "name", Value: 1}}},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create store indexes: %w", err)
	}
	return nil
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection("products")}
}

func (m *mongoProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateBarcode
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (m *mongoProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *mongoProductRepository) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"barcode_value": barcode, "is_deleted": false})
}

func (m *mongoProductRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (m *mongoProductRepository) GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	var products []*domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (m *mongoProductRepository) ListStoreProducts(ctx context.Context, storeID string) ([]*domain.Product, error) {
	filter := bson.M{"store_id": storeID, "is_active": true, "is_deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (m *mongoProductRepository) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	set := bson.M{"updated_at": time.Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.SKU != nil {
		set["sku"] = *patch.SKU
	}
	if patch.BarcodeValue != nil {
		set["barcode_value"] = *patch.BarcodeValue
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product domain.Product
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "is_deleted": false}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateBarcode
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

func (m *mongoProductRepository) SoftDeleteProduct(ctx context.Context, id string) error {
	// the barcode is released so it can be assigned to a replacement product
	update := bson.M{
		"$set":   bson.M{"is_deleted": true, "is_active": false, "updated_at": time.Now()},
		"$unset": bson.M{"barcode_value": ""},
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id, "is_deleted": false}, update)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "store_id", Value: 1}}},
		{Keys: bson.D{{Key: "sku", Value: 1}}},
		{
			Keys:    bson.D{{Key: "barcode_value", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}
