package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockGateway fabricates sessions locally. Used when no processor is configured.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) CreatePaymentSheet(_ context.Context, req SheetRequest) (*Sheet, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	id := uuid.NewString()
	return &Sheet{
		ClientSecret:    fmt.Sprintf("pi_mock_%s_secret_%d", id, MinorUnits(req.Amount)),
		PaymentIntentID: "pi_mock_" + id,
		EphemeralKey:    "ek_mock_" + id,
		Customer:        "cus_mock_" + id,
		PublishableKey:  "pk_mock",
	}, nil
}
