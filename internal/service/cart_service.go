package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/shopspring/decimal"
)

// CartService manages a shopper's in-store cart. Every operation takes the
// caller identity explicitly.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
	}
}

// GetCart returns the user's active cart, or an empty one when none exists.
func (s *CartService) GetCart(ctx context.Context, userID, storeID string) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return &domain.Cart{UserID: userID, StoreID: storeID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem puts quantity units of a product into the user's cart for storeID,
// merging with an existing line for the same product.
func (s *CartService) AddItem(ctx context.Context, userID, storeID, productID string, quantity int) (*domain.Cart, error) {
	if productID == "" || storeID == "" {
		return nil, validationf("product ID, quantity, and store ID are required")
	}
	if quantity < 1 {
		return nil, ErrInvalidQty
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !product.Available() {
		return nil, ErrProductNotFound
	}
	if product.StoreID != storeID {
		return nil, ErrWrongStore
	}

	cart, err := s.activeCart(ctx, userID, storeID)
	if err != nil {
		return nil, err
	}

	var existing *domain.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			break
		}
	}

	if existing != nil {
		qty := existing.Quantity + quantity
		err = s.carts.SetItemQuantity(ctx, cart.ID, productID, qty, lineTotal(existing.UnitPrice, qty))
	} else {
		err = s.carts.PushItem(ctx, cart.ID, domain.CartItem{
			ProductID:  productID,
			Name:       product.Name,
			Quantity:   quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal(product.Price, quantity),
		})
	}
	if err != nil {
		slog.ErrorContext(ctx, "cart add item failed", "cart_id", cart.ID, "product_id", productID, "error", err)
		return nil, mapRepoError(err)
	}

	return s.reload(ctx, userID, storeID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, storeID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQty
	}

	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	var unitPrice decimal.Decimal
	found := false
	for _, item := range cart.Items {
		if item.ProductID == productID {
			unitPrice = item.UnitPrice
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	if err := s.carts.SetItemQuantity(ctx, cart.ID, productID, quantity, lineTotal(unitPrice, quantity)); err != nil {
		slog.ErrorContext(ctx, "cart update quantity failed", "cart_id", cart.ID, "product_id", productID, "error", err)
		return nil, mapRepoError(err)
	}

	return s.reload(ctx, userID, cart.StoreID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, storeID, productID string) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := s.carts.RemoveItem(ctx, cart.ID, productID); err != nil {
		slog.ErrorContext(ctx, "cart remove item failed", "cart_id", cart.ID, "product_id", productID, "error", err)
		return nil, mapRepoError(err)
	}

	return s.reload(ctx, userID, cart.StoreID)
}

// ClearCart deactivates the user's active cart for storeID.
func (s *CartService) ClearCart(ctx context.Context, userID, storeID string) error {
	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if err != nil {
		return mapRepoError(err)
	}
	return mapRepoError(s.carts.Deactivate(ctx, cart.ID))
}

func (s *CartService) activeCart(ctx context.Context, userID, storeID string) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, err
	}

	cart = &domain.Cart{UserID: userID, StoreID: storeID}
	err = s.carts.CreateCart(ctx, cart)
	if errors.Is(err, repository.ErrActiveCartExists) {
		// lost a race with a concurrent add
		return s.carts.GetActiveCart(ctx, userID, storeID)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) reload(ctx context.Context, userID, storeID string) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return cart, nil
}

func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
