package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/shopspring/decimal"
)

const checkoutMessage = "Checkout created, awaiting payment"

type CheckoutItem struct {
	ProductID string
	Quantity  int
	// Price and LineTotal are client hints; they are checked, never trusted.
	Price     *decimal.Decimal
	LineTotal *decimal.Decimal
}

type CheckoutRequest struct {
	UserID        string
	StoreID       string
	Items         []CheckoutItem
	PaymentMethod string
	TotalAmount   *decimal.Decimal
}

type CheckoutResult struct {
	Transaction *domain.Transaction
	Items       []*domain.TransactionItem
	// QRCode is a display-only payload; the redeemable credential is issued after payment.
	QRCode  string
	Message string
}

type CheckoutService struct {
	stores       repository.StoreRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	carts        repository.CartRepository
	outbox       repository.OutboxRepository
	taxRate      decimal.Decimal
	now          func() time.Time
}

func NewCheckoutService(
	stores repository.StoreRepository,
	products repository.ProductRepository,
	transactions repository.TransactionRepository,
	carts repository.CartRepository,
	outbox repository.OutboxRepository,
	taxRate decimal.Decimal,
) *CheckoutService {
	return &CheckoutService{
		stores:       stores,
		products:     products,
		transactions: transactions,
		carts:        carts,
		outbox:       outbox,
		taxRate:      taxRate,
		now:          time.Now,
	}
}

// Checkout validates the requested items against the catalog and records a
// PENDING transaction with server-computed totals. Nothing is written unless
// every item validates.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if strings.TrimSpace(req.StoreID) == "" {
		return nil, validationf("store ID is required")
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	store, err := s.stores.GetStore(ctx, req.StoreID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !store.Available() {
		return nil, ErrStoreNotFound
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, validationf("item ID is required")
		}
		if item.Quantity < 1 {
			return nil, ErrInvalidQty
		}
		ids = append(ids, item.ProductID)
	}

	// catalog prices are read from the database, never from cache
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]*domain.TransactionItem, 0, len(req.Items))
	subtotal := decimal.Zero
	itemCount := 0
	for _, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.Available() {
			return nil, validationf("product %s not found", item.ProductID)
		}
		if product.StoreID != store.ID {
			return nil, fmt.Errorf("%w: %s", ErrWrongStore, item.ProductID)
		}

		total := lineTotal(product.Price, item.Quantity)
		if item.Price != nil && !item.Price.Equal(product.Price) {
			return nil, fmt.Errorf("%w: %s", ErrPriceMismatch, item.ProductID)
		}
		if item.LineTotal != nil && !item.LineTotal.Round(2).Equal(total.Round(2)) {
			return nil, fmt.Errorf("%w: %s", ErrPriceMismatch, item.ProductID)
		}

		lines = append(lines, &domain.TransactionItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   item.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: total,
		})
		subtotal = subtotal.Add(total)
		itemCount += item.Quantity
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax)
	if req.TotalAmount != nil && !req.TotalAmount.Round(2).Equal(total) {
		return nil, ErrTotalMismatch
	}

	tx := &domain.Transaction{
		StoreID:       store.ID,
		UserID:        req.UserID,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		TotalAmount:   total,
		Status:        domain.TransactionStatusPending,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		slog.ErrorContext(ctx, "checkout failed to create transaction", "store_id", store.ID, "error", err)
		return nil, err
	}

	for _, line := range lines {
		line.TransactionID = tx.ID
	}
	if err := s.transactions.InsertItems(ctx, lines); err != nil {
		slog.ErrorContext(ctx, "checkout failed to insert items", "txid", tx.ID, "error", err)
		if errFail := s.transactions.MarkFailed(ctx, tx.ID, "item insert failed"); errFail != nil {
			slog.ErrorContext(ctx, "checkout failed to mark transaction failed", "txid", tx.ID, "error", errFail)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "checkout created", "txid", tx.ID, "store_id", store.ID, "step", "checkout", "status", tx.Status.String(), "total", total.StringFixed(2))

	recordEvent(ctx, s.outbox, tx.ID, domain.EventTransactionCreated, map[string]interface{}{
		"transaction_id": tx.ID,
		"store_id":       store.ID,
		"user_id":        req.UserID,
		"total_amount":   total.StringFixed(2),
		"item_count":     itemCount,
	})
	s.closeCart(ctx, req.UserID, store.ID)

	placeholder, err := json.Marshal(domain.QRPayload{
		TransactionID: tx.ID,
		StoreID:       store.ID,
		ItemCount:     itemCount,
		Timestamp:     s.now().UTC(),
		Verified:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build qr payload: %w", err)
	}

	return &CheckoutResult{
		Transaction: tx,
		Items:       lines,
		QRCode:      string(placeholder),
		Message:     checkoutMessage,
	}, nil
}

func (s *CheckoutService) closeCart(ctx context.Context, userID, storeID string) {
	if userID == "" || s.carts == nil {
		return
	}

	cart, err := s.carts.GetActiveCart(ctx, userID, storeID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return
	}
	if err == nil {
		err = s.carts.Deactivate(ctx, cart.ID)
	}
	if err != nil {
		slog.WarnContext(ctx, "checkout failed to close cart", "user_id", userID, "store_id", storeID, "error", err)
	}
}
