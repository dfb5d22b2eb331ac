package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const ephemeralKeyAPIVersion = "2023-10-16"

type StripeGateway struct {
	api            *client.API
	publishableKey string
}

func NewStripeGateway(secretKey, publishableKey string) *StripeGateway {
	return &StripeGateway{
		api:            client.New(secretKey, nil),
		publishableKey: publishableKey,
	}
}

func (g *StripeGateway) CreatePaymentSheet(ctx context.Context, req SheetRequest) (*Sheet, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	customerParams := &stripe.CustomerParams{}
	customerParams.Context = ctx
	customerParams.AddMetadata("transaction_id", req.TransactionID)
	customer, err := g.api.Customers.New(customerParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	keyParams := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customer.ID),
		StripeVersion: stripe.String(ephemeralKeyAPIVersion),
	}
	keyParams.Context = ctx
	key, err := g.api.EphemeralKeys.New(keyParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create ephemeral key: %w", err)
	}

	intentParams := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(req.Amount)),
		Currency: stripe.String(currency),
		Customer: stripe.String(customer.ID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	intentParams.Context = ctx
	intentParams.AddMetadata("transaction_id", req.TransactionID)
	intent, err := g.api.PaymentIntents.New(intentParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Sheet{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		EphemeralKey:    key.Secret,
		Customer:        customer.ID,
		PublishableKey:  g.publishableKey,
	}, nil
}
