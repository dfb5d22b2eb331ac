package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrStoreNotFound       = errors.New("store not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrDuplicateBarcode    = errors.New("barcode already assigned to another product")
	ErrCartNotFound        = errors.New("cart not found")
	ErrItemNotFound        = errors.New("item not found in cart")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrReceiptExists       = errors.New("receipt already exists for transaction")

	// ErrStatusConflict is returned by conditional updates whose precondition
	// on the current status did not hold. Callers re-read to learn why.
	ErrStatusConflict = errors.New("status precondition failed")
)

// StoreRepository reads and writes stores.
type StoreRepository interface {
	CreateStore(ctx context.Context, store *domain.Store) error
	// GetStore returns the store regardless of its active or deleted flags
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	// ListStores returns active, non-deleted stores ordered by name
	ListStores(ctx context.Context) ([]*domain.Store, error)
}

// ProductRepository reads and writes catalog products.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// GetProducts returns the products found for ids keyed by id; missing ids are absent from the map
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	// ListStoreProducts returns active, non-deleted products of a store
	ListStoreProducts(ctx context.Context, storeID string) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	SoftDeleteProduct(ctx context.Context, id string) error
}

// CartRepository stores carts. At most one cart per (user, store) is active.
type CartRepository interface {
	// GetActiveCart returns the user's active cart for storeID, or the most
	// recently updated active cart when storeID is empty
	GetActiveCart(ctx context.Context, userID, storeID string) (*domain.Cart, error)
	CreateCart(ctx context.Context, cart *domain.Cart) error
	PushItem(ctx context.Context, cartID string, item domain.CartItem) error
	SetItemQuantity(ctx context.Context, cartID, productID string, quantity int, total decimal.Decimal) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Deactivate(ctx context.Context, cartID string) error
}

// TransactionRepository stores transactions and their line items.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	InsertItems(ctx context.Context, items []*domain.TransactionItem) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetItems(ctx context.Context, transactionID string) ([]*domain.TransactionItem, error)

	// MarkPaid moves a PENDING transaction to PAID in a single conditional write.
	// Returns ErrStatusConflict if the transaction is not PENDING.
	MarkPaid(ctx context.Context, id string, update domain.PaymentUpdate) error

	// MarkFailed moves a PENDING transaction to FAILED.
	// Returns ErrStatusConflict if the transaction is not PENDING.
	MarkFailed(ctx context.Context, id, reason string) error
}

// ReceiptRepository stores QR receipts. transaction_id and qr_token are unique.
type ReceiptRepository interface {
	// CreateReceipt returns ErrReceiptExists when the transaction already has a receipt
	CreateReceipt(ctx context.Context, receipt *domain.QrReceipt) error
	GetReceiptByTransaction(ctx context.Context, transactionID string) (*domain.QrReceipt, error)
	GetReceiptByToken(ctx context.Context, token string) (*domain.QrReceipt, error)

	// MarkUsed moves a VALID, unexpired receipt to USED.
	// Returns ErrStatusConflict if another writer got there first or the receipt expired.
	MarkUsed(ctx context.Context, id string, now time.Time, verifiedBy string) error

	// MarkExpired moves a VALID receipt to EXPIRED.
	// Returns ErrStatusConflict if the receipt is no longer VALID.
	MarkExpired(ctx context.Context, id string, now time.Time) error
}

type OutboxEvent struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregate_id"`
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

// OutboxRepository persists lifecycle events until the publisher ships them.
type OutboxRepository interface {
	AddEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}
