package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidAmount      = errors.New("payment amount must be positive")
)

// SheetRequest asks the gateway for a client-side payment session.
type SheetRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
}

// Sheet is what a mobile client needs to present the gateway's payment sheet.
type Sheet struct {
	ClientSecret    string `json:"paymentIntent"`
	PaymentIntentID string `json:"paymentIntentId"`
	EphemeralKey    string `json:"ephemeralKey"`
	Customer        string `json:"customer"`
	PublishableKey  string `json:"publishableKey"`
}

// Gateway is the external payment processor. It only creates sessions;
// the outcome is reported back through payment confirmation.
type Gateway interface {
	CreatePaymentSheet(ctx context.Context, req SheetRequest) (*Sheet, error)
}

// MinorUnits converts an amount to the smallest currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
