package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusPaid    TransactionStatus = "PAID"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// CanTransitionTo reports whether moving from s to next is allowed.
// Only PENDING may move, and only to PAID or FAILED.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s != TransactionStatusPending {
		return false
	}
	return next == TransactionStatusPaid || next == TransactionStatusFailed
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

type PaymentProvider string

const (
	PaymentProviderApplePay    PaymentProvider = "APPLE_PAY"
	PaymentProviderGooglePay   PaymentProvider = "GOOGLE_PAY"
	PaymentProviderCard        PaymentProvider = "CARD"
	PaymentProviderPayPal      PaymentProvider = "PAYPAL"
	PaymentProviderMock        PaymentProvider = "MOCK"
	PaymentProviderStripe      PaymentProvider = "STRIPE"
	PaymentProviderStripeSheet PaymentProvider = "STRIPE_SHEET"
)

func (p PaymentProvider) Valid() bool {
	switch p {
	case PaymentProviderApplePay, PaymentProviderGooglePay, PaymentProviderCard, PaymentProviderPayPal,
		PaymentProviderMock, PaymentProviderStripe, PaymentProviderStripeSheet:
		return true
	}
	return false
}

type Transaction struct {
	ID               string            `bson:"_id"`
	StoreID          string            `bson:"store_id"`
	UserID           string            `bson:"user_id,omitempty"`
	Subtotal         decimal.Decimal   `bson:"subtotal"`
	TaxAmount        decimal.Decimal   `bson:"tax_amount"`
	TotalAmount      decimal.Decimal   `bson:"total_amount"`
	Status           TransactionStatus `bson:"status"`
	PaymentMethod    string            `bson:"payment_method,omitempty"`
	PaymentProvider  PaymentProvider   `bson:"payment_provider,omitempty"`
	PaymentIntentID  string            `bson:"payment_intent_id,omitempty"`
	PaymentReference string            `bson:"payment_reference,omitempty"`
	FailureReason    string            `bson:"failure_reason,omitempty"`
	CreatedAt        time.Time         `bson:"created_at"`
	UpdatedAt        time.Time         `bson:"updated_at"`
}

// TransactionItem is an immutable price snapshot of one purchased line.
type TransactionItem struct {
	ID            string          `bson:"_id"`
	TransactionID string          `bson:"transaction_id"`
	ProductID     string          `bson:"product_id"`
	Name          string          `bson:"name"`
	Quantity      int             `bson:"quantity"`
	UnitPrice     decimal.Decimal `bson:"unit_price"`
	TotalPrice    decimal.Decimal `bson:"total_price"`
	CreatedAt     time.Time       `bson:"created_at"`
}

// LineTotal returns TotalPrice, falling back to quantity times unit price when unset.
func (i *TransactionItem) LineTotal() decimal.Decimal {
	if !i.TotalPrice.IsZero() {
		return i.TotalPrice
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PaymentUpdate describes the fields written when a transaction is marked paid.
type PaymentUpdate struct {
	PaymentIntentID  string
	PaymentProvider  PaymentProvider
	PaymentReference string
}
