package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway trips after consecutive gateway failures and fails fast while open.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*Sheet]
}

func NewBreakerGateway(next Gateway, name string, failureThreshold uint32, openTimeout time.Duration) *BreakerGateway {
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		// a bad amount is the caller's fault, not the gateway's
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidAmount)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("payment circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerGateway{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*Sheet](settings),
	}
}

func (g *BreakerGateway) CreatePaymentSheet(ctx context.Context, req SheetRequest) (*Sheet, error) {
	sheet, err := g.cb.Execute(func() (*Sheet, error) {
		return g.next.CreatePaymentSheet(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return sheet, err
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}
