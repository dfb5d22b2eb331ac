package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrActiveCartExists = errors.New("active cart already exists for store")
	ErrItemExists       = errors.New("product already in cart")
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{collection: db.Collection("carts")}
}

func (m *mongoCartRepository) GetActiveCart(ctx context.Context, userID, storeID string) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID, "is_active": true}
	if storeID != "" {
		filter["store_id"] = storeID
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var cart domain.Cart
	err := m.collection.FindOne(ctx, filter, opts).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (m *mongoCartRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.IsActive = true
	cart.CreatedAt = now
	cart.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, cart); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrActiveCartExists
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (m *mongoCartRepository) PushItem(ctx context.Context, cartID string, item domain.CartItem) error {
	now := time.Now()
	item.AddedAt = now

	// the product must not already be a line of this cart
	filter := bson.M{"_id": cartID, "is_active": true, "items.product_id": bson.M{"$ne": item.ProductID}}
	update := bson.M{
		"$push": bson.M{"items": item},
		"$set":  bson.M{"updated_at": now},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	if result.MatchedCount == 0 {
		n, errCount := m.collection.CountDocuments(ctx, bson.M{"_id": cartID, "is_active": true})
		if errCount != nil {
			return fmt.Errorf("failed to check cart: %w", errCount)
		}
		if n > 0 {
			return ErrItemExists
		}
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoCartRepository) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int, total decimal.Decimal) error {
	filter := bson.M{
		"_id":              cartID,
		"is_active":        true,
		"items.product_id": productID,
	}
	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity":    quantity,
			"items.$[elem].total_price": total,
			"updated_at":                time.Now(),
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoCartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	filter := bson.M{"_id": cartID, "is_active": true, "items.product_id": productID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoCartRepository) Deactivate(ctx context.Context, cartID string) error {
	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": cartID, "is_active": true}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "store_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
