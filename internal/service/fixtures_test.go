package service

import (
	"testing"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	testStoreID   = "store-nike"
	otherStoreID  = "store-adidas"
	shoeID        = "nike-af1"
	sockID        = "nike-socks"
	otherShoeID   = "adidas-samba"
	deletedItemID = "nike-retired"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// seedCatalog creates two stores. Nike sells a $100 shoe and $25 socks.
func seedCatalog(t *testing.T) *mockStore {
	t.Helper()
	m := newMockStore()

	m.stores[testStoreID] = &domain.Store{ID: testStoreID, Name: "Nike", IsActive: true}
	m.stores[otherStoreID] = &domain.Store{ID: otherStoreID, Name: "Adidas", IsActive: true}

	m.products[shoeID] = &domain.Product{ID: shoeID, StoreID: testStoreID, Name: "Air Force 1", Price: dec("100.00"), BarcodeValue: "1001", IsActive: true}
	m.products[sockID] = &domain.Product{ID: sockID, StoreID: testStoreID, Name: "Crew Socks", Price: dec("25.00"), BarcodeValue: "1002", IsActive: true}
	m.products[otherShoeID] = &domain.Product{ID: otherShoeID, StoreID: otherStoreID, Name: "Samba", Price: dec("90.00"), BarcodeValue: "2001", IsActive: true}
	m.products[deletedItemID] = &domain.Product{ID: deletedItemID, StoreID: testStoreID, Name: "Old", Price: dec("10.00"), IsDeleted: true}

	return m
}

func newTestCheckoutService(m *mockStore) *CheckoutService {
	r := m.repos()
	return NewCheckoutService(r.Stores, r.Products, r.Transactions, r.Carts, r.Outbox, decimal.Zero)
}

func newTestPaymentService(m *mockStore, gw *mockGateway) *PaymentService {
	r := m.repos()
	if gw == nil {
		gw = &mockGateway{}
	}
	return NewPaymentService(r.Transactions, r.Outbox, gw)
}

func newTestReceiptService(m *mockStore) *ReceiptService {
	r := m.repos()
	return NewReceiptService(r.Transactions, r.Receipts, r.Outbox, mockRenderer{}, DefaultReceiptTTL)
}

func newTestVerifierService(m *mockStore) *VerifierService {
	r := m.repos()
	return NewVerifierService(r.Transactions, r.Receipts, r.Outbox)
}

// standardCheckout is one shoe and two pairs of socks: $150.00.
func standardCheckout() CheckoutRequest {
	return CheckoutRequest{
		UserID:  "user-1",
		StoreID: testStoreID,
		Items: []CheckoutItem{
			{ProductID: shoeID, Quantity: 1},
			{ProductID: sockID, Quantity: 2},
		},
		PaymentMethod: "apple_pay",
	}
}
