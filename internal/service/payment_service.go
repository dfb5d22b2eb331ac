package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/payment"
	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/shopspring/decimal"
)

type ConfirmPaymentRequest struct {
	TransactionID    string
	PaymentIntentID  string
	PaymentProvider  domain.PaymentProvider
	PaymentReference string
}

type PaymentSheetRequest struct {
	// TransactionID, when set, prices the sheet from the stored transaction.
	TransactionID string
	TotalAmount   decimal.Decimal
	Currency      string
}

// PaymentService reconciles gateway outcomes with transactions. It never
// retries a confirmation on its own; a retry comes from the caller.
type PaymentService struct {
	transactions repository.TransactionRepository
	outbox       repository.OutboxRepository
	gateway      payment.Gateway
}

func NewPaymentService(transactions repository.TransactionRepository, outbox repository.OutboxRepository, gateway payment.Gateway) *PaymentService {
	return &PaymentService{
		transactions: transactions,
		outbox:       outbox,
		gateway:      gateway,
	}
}

// CreatePaymentSheet opens a gateway session for a pending transaction or a bare amount.
func (s *PaymentService) CreatePaymentSheet(ctx context.Context, req PaymentSheetRequest) (*payment.Sheet, error) {
	amount := req.TotalAmount
	if req.TransactionID != "" {
		tx, err := s.transactions.GetTransaction(ctx, req.TransactionID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		if tx.Status == domain.TransactionStatusPaid {
			return nil, ErrAlreadyPaid
		}
		if tx.Status != domain.TransactionStatusPending {
			return nil, ErrTransactionState
		}
		amount = tx.TotalAmount
	}
	if !amount.IsPositive() {
		return nil, validationf("total amount must be greater than zero")
	}

	sheet, err := s.gateway.CreatePaymentSheet(ctx, payment.SheetRequest{
		TransactionID: req.TransactionID,
		Amount:        amount,
		Currency:      req.Currency,
	})
	if err != nil {
		slog.ErrorContext(ctx, "payment sheet creation failed", "txid", req.TransactionID, "step", "payment_sheet", "error", err)
		if errors.Is(err, payment.ErrInvalidAmount) {
			return nil, validationf("%v", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return sheet, nil
}

// ConfirmPayment moves a PENDING transaction to PAID exactly once. A second
// confirmation of the same transaction is rejected with ErrAlreadyPaid.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*domain.Transaction, error) {
	if strings.TrimSpace(req.TransactionID) == "" || strings.TrimSpace(req.PaymentIntentID) == "" {
		return nil, ErrMissingPayment
	}
	if req.PaymentProvider != "" && !req.PaymentProvider.Valid() {
		return nil, validationf("unknown payment provider %q", req.PaymentProvider)
	}

	// read first so nothing is left to fetch once the write has landed
	tx, err := s.transactions.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !tx.Status.CanTransitionTo(domain.TransactionStatusPaid) {
		return nil, transitionError(tx.Status)
	}

	update := domain.PaymentUpdate{
		PaymentIntentID:  req.PaymentIntentID,
		PaymentProvider:  req.PaymentProvider,
		PaymentReference: req.PaymentReference,
	}
	if err := s.transactions.MarkPaid(ctx, req.TransactionID, update); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, s.conflictReason(ctx, req.TransactionID)
		}
		slog.ErrorContext(ctx, "payment confirm failed", "txid", req.TransactionID, "error", err)
		return nil, err
	}

	tx.Status = domain.TransactionStatusPaid
	tx.PaymentIntentID = update.PaymentIntentID
	if update.PaymentProvider != "" {
		tx.PaymentProvider = update.PaymentProvider
	}
	if update.PaymentReference != "" {
		tx.PaymentReference = update.PaymentReference
	}
	tx.UpdatedAt = time.Now()

	slog.InfoContext(ctx, "payment confirmed", "txid", tx.ID, "step", "confirm_payment", "status", tx.Status.String())
	recordEvent(ctx, s.outbox, tx.ID, domain.EventTransactionPaid, map[string]interface{}{
		"transaction_id":    tx.ID,
		"store_id":          tx.StoreID,
		"payment_intent_id": tx.PaymentIntentID,
		"payment_provider":  tx.PaymentProvider,
		"total_amount":      tx.TotalAmount.StringFixed(2),
	})
	return tx, nil
}

// FailPayment moves a PENDING transaction to FAILED.
func (s *PaymentService) FailPayment(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, validationf("transaction ID is required")
	}

	tx, err := s.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !tx.Status.CanTransitionTo(domain.TransactionStatusFailed) {
		return nil, transitionError(tx.Status)
	}

	if err := s.transactions.MarkFailed(ctx, transactionID, reason); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, s.conflictReason(ctx, transactionID)
		}
		return nil, err
	}
	tx.Status = domain.TransactionStatusFailed
	if reason != "" {
		tx.FailureReason = reason
	}
	tx.UpdatedAt = time.Now()

	slog.InfoContext(ctx, "payment failed", "txid", tx.ID, "step", "fail_payment", "status", tx.Status.String(), "reason", reason)
	recordEvent(ctx, s.outbox, tx.ID, domain.EventTransactionFailed, map[string]interface{}{
		"transaction_id": tx.ID,
		"reason":         reason,
	})
	return tx, nil
}

// conflictReason re-reads a transaction whose conditional update matched nothing.
func (s *PaymentService) conflictReason(ctx context.Context, transactionID string) error {
	tx, err := s.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return mapRepoError(err)
	}

	if tx.Status.CanTransitionTo(domain.TransactionStatusPaid) {
		// still PENDING: the write lost to nothing we can see, report it rather than retry
		return fmt.Errorf("%w: concurrent update", ErrTransactionState)
	}
	return transitionError(tx.Status)
}

// transitionError classifies a transaction that can no longer move.
func transitionError(status domain.TransactionStatus) error {
	if status == domain.TransactionStatusPaid {
		return ErrAlreadyPaid
	}
	return fmt.Errorf("%w: transaction is %s", ErrTransactionState, strings.ToLower(status.String()))
}
