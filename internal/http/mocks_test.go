package http

import (
	"context"
	"sync"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/payment"
	"github.com/Zia-ullah-khan/qless/internal/service"
	"github.com/shopspring/decimal"
)

type checkoutMock struct {
	result *service.CheckoutResult
	err    error
	last   service.CheckoutRequest
}

func (m *checkoutMock) Checkout(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// paymentMock confirms a transaction once, like the real conditional update.
type paymentMock struct {
	mu           sync.Mutex
	tx           *domain.Transaction
	confirmCalls int
	sheet        *payment.Sheet
	lastSheet    service.PaymentSheetRequest
	err          error
}

func (m *paymentMock) CreatePaymentSheet(_ context.Context, req service.PaymentSheetRequest) (*payment.Sheet, error) {
	m.lastSheet = req
	if m.err != nil {
		return nil, m.err
	}
	return m.sheet, nil
}

func (m *paymentMock) ConfirmPayment(_ context.Context, req service.ConfirmPaymentRequest) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmCalls++
	if m.err != nil {
		return nil, m.err
	}
	if m.tx.Status == domain.TransactionStatusPaid {
		return nil, service.ErrAlreadyPaid
	}
	m.tx.Status = domain.TransactionStatusPaid
	m.tx.PaymentIntentID = req.PaymentIntentID
	m.tx.PaymentProvider = req.PaymentProvider
	cp := *m.tx
	return &cp, nil
}

func (m *paymentMock) FailPayment(_ context.Context, _ string, reason string) (*domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tx.Status = domain.TransactionStatusFailed
	m.tx.FailureReason = reason
	cp := *m.tx
	return &cp, nil
}

type transactionMock struct {
	tx    *domain.Transaction
	items []*domain.TransactionItem
	err   error
}

func (m *transactionMock) GetTransaction(context.Context, string) (*domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

func (m *transactionMock) GetItems(context.Context, string) ([]*domain.TransactionItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

type receiptMock struct {
	receipt *domain.QrReceipt
	err     error
}

func (m *receiptMock) GetOrIssue(context.Context, string) (*domain.QrReceipt, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

type verifierMock struct {
	result *service.VerificationResult
	view   *service.StaffView
	err    error
	last   service.VerifyRequest
}

func (m *verifierMock) Verify(_ context.Context, req service.VerifyRequest) (*service.VerificationResult, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *verifierMock) GetTransactionForVerification(context.Context, string) (*service.StaffView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

type catalogMock struct {
	stores   []*domain.Store
	products []*domain.Product
	product  *domain.Product
	err      error
	created  service.NewProduct
	patch    domain.ProductPatch
	deleted  string
}

func (m *catalogMock) ListStores(context.Context) ([]*domain.Store, error) {
	return m.stores, m.err
}

func (m *catalogMock) GetStore(_ context.Context, id string) (*domain.Store, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.stores {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, service.ErrStoreNotFound
}

func (m *catalogMock) ListStoreProducts(context.Context, string) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *catalogMock) ScanBarcode(context.Context, string, string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *catalogMock) CreateStore(_ context.Context, name, logoURL string) (*domain.Store, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Store{ID: "store-new", Name: name, LogoURL: logoURL, IsActive: true}, nil
}

func (m *catalogMock) CreateProduct(_ context.Context, np service.NewProduct) (*domain.Product, error) {
	m.created = np
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: "prod-new", StoreID: np.StoreID, Name: np.Name, Price: np.Price, IsActive: true}, nil
}

func (m *catalogMock) UpdateProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	m.patch = patch
	if m.err != nil {
		return nil, m.err
	}
	p := *m.product
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	return &p, nil
}

func (m *catalogMock) DeleteProduct(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type cartMock struct {
	cart     *domain.Cart
	err      error
	lastUser string
}

func (m *cartMock) GetCart(_ context.Context, userID, _ string) (*domain.Cart, error) {
	m.lastUser = userID
	return m.cart, m.err
}

func (m *cartMock) AddItem(_ context.Context, userID, _, _ string, _ int) (*domain.Cart, error) {
	m.lastUser = userID
	return m.cart, m.err
}

func (m *cartMock) UpdateQuantity(_ context.Context, userID, _, _ string, _ int) (*domain.Cart, error) {
	m.lastUser = userID
	return m.cart, m.err
}

func (m *cartMock) RemoveItem(_ context.Context, userID, _, _ string) (*domain.Cart, error) {
	m.lastUser = userID
	return m.cart, m.err
}

func (m *cartMock) ClearCart(_ context.Context, userID, _ string) error {
	m.lastUser = userID
	return m.err
}

type observerMock struct {
	outcomes []string
}

func (o *observerMock) ObserveVerification(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTransaction(status domain.TransactionStatus) *domain.Transaction {
	now := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	return &domain.Transaction{
		ID:          "tx-1",
		StoreID:     "store-nike",
		UserID:      "user-1",
		Subtotal:    dec("150.00"),
		TaxAmount:   decimal.Zero,
		TotalAmount: dec("150.00"),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func sampleItems() []*domain.TransactionItem {
	return []*domain.TransactionItem{
		{ID: "i-1", TransactionID: "tx-1", ProductID: "nike-af1", Name: "Air Force 1", Quantity: 1, UnitPrice: dec("100"), TotalPrice: dec("100")},
		{ID: "i-2", TransactionID: "tx-1", ProductID: "nike-socks", Name: "Crew Socks", Quantity: 2, UnitPrice: dec("25"), TotalPrice: dec("50")},
	}
}
