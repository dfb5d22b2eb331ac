package http

import (
	"context"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/payment"
	"github.com/Zia-ullah-khan/qless/internal/service"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

type PaymentService interface {
	CreatePaymentSheet(ctx context.Context, req service.PaymentSheetRequest) (*payment.Sheet, error)
	ConfirmPayment(ctx context.Context, req service.ConfirmPaymentRequest) (*domain.Transaction, error)
	FailPayment(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
}

type TransactionService interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetItems(ctx context.Context, id string) ([]*domain.TransactionItem, error)
}

type ReceiptService interface {
	GetOrIssue(ctx context.Context, transactionID string) (*domain.QrReceipt, error)
}

type VerifierService interface {
	Verify(ctx context.Context, req service.VerifyRequest) (*service.VerificationResult, error)
	GetTransactionForVerification(ctx context.Context, transactionID string) (*service.StaffView, error)
}

type CatalogService interface {
	ListStores(ctx context.Context) ([]*domain.Store, error)
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)
	ListStoreProducts(ctx context.Context, storeID string) ([]*domain.Product, error)
	ScanBarcode(ctx context.Context, barcode, storeID string) (*domain.Product, error)
	CreateStore(ctx context.Context, name, logoURL string) (*domain.Store, error)
	CreateProduct(ctx context.Context, np service.NewProduct) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type CartService interface {
	GetCart(ctx context.Context, userID, storeID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, storeID, productID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, storeID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, storeID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID, storeID string) error
}
