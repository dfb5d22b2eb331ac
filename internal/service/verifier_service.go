package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/repository"
)

type VerifyRequest struct {
	// QRData is the raw JSON scanned from the code.
	QRData string
	// QRToken is accepted from scanners that only read the token.
	QRToken    string
	VerifiedBy string
}

type VerificationResult struct {
	Transaction *domain.Transaction
	Items       []*domain.TransactionItem
	ItemCount   int
	VerifiedAt  time.Time
	VerifiedBy  string
}

// StaffView is the gate staff's read-only look at a transaction.
type StaffView struct {
	Transaction *domain.Transaction
	Items       []*domain.TransactionItem
	Receipt     *domain.QrReceipt
}

type scannedPayload struct {
	TransactionID string
	Verified      bool
	Token         string
}

// VerifierService redeems exit credentials. A credential moves VALID -> USED
// or VALID -> EXPIRED exactly once; both are terminal.
type VerifierService struct {
	transactions repository.TransactionRepository
	receipts     repository.ReceiptRepository
	outbox       repository.OutboxRepository
	now          func() time.Time
}

func NewVerifierService(transactions repository.TransactionRepository, receipts repository.ReceiptRepository, outbox repository.OutboxRepository) *VerifierService {
	return &VerifierService{
		transactions: transactions,
		receipts:     receipts,
		outbox:       outbox,
		now:          time.Now,
	}
}

func (s *VerifierService) Verify(ctx context.Context, req VerifyRequest) (*VerificationResult, error) {
	verifiedBy := strings.TrimSpace(req.VerifiedBy)
	if verifiedBy == "" {
		verifiedBy = domain.DefaultVerifier
	}

	transactionID, token, err := s.identify(ctx, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	receipt, err := s.receipts.GetReceiptByTransaction(ctx, tx.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if token != "" && token != receipt.QRToken {
		return nil, ErrInvalidQRContent
	}

	// load items first: once MarkUsed commits, the scan must succeed
	items, err := s.transactions.GetItems(ctx, tx.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.redeem(ctx, receipt, now, verifiedBy); err != nil {
		slog.InfoContext(ctx, "qr verification rejected", "txid", tx.ID, "step", "verify", "status", KindOf(err).String())
		return nil, err
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	slog.InfoContext(ctx, "qr verified", "txid", tx.ID, "step", "verify", "status", domain.QRStatusUsed.String(), "verified_by", verifiedBy)
	recordEvent(ctx, s.outbox, tx.ID, domain.EventReceiptVerified, map[string]interface{}{
		"transaction_id": tx.ID,
		"receipt_id":     receipt.ID,
		"verified_by":    verifiedBy,
		"verified_at":    now.UTC(),
	})

	return &VerificationResult{
		Transaction: tx,
		Items:       items,
		ItemCount:   count,
		VerifiedAt:  now,
		VerifiedBy:  verifiedBy,
	}, nil
}

// identify extracts the transaction id, and the token when present, from the scan.
func (s *VerifierService) identify(ctx context.Context, req VerifyRequest) (string, string, error) {
	if strings.TrimSpace(req.QRData) == "" {
		if token := strings.TrimSpace(req.QRToken); token != "" {
			receipt, err := s.receipts.GetReceiptByToken(ctx, token)
			if err != nil {
				return "", "", mapRepoError(err)
			}
			return receipt.TransactionID, token, nil
		}
		return "", "", validationf("QR data is required")
	}

	p, err := parsePayload(req.QRData)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(p.TransactionID) == "" || !p.Verified {
		return "", "", ErrInvalidQRContent
	}
	return strings.TrimSpace(p.TransactionID), p.Token, nil
}

// parsePayload separates a scan that is not a JSON object (InvalidFormat)
// from an object whose fields have the wrong types (InvalidContent).
func parsePayload(data string) (scannedPayload, error) {
	var p scannedPayload

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil || fields == nil {
		return p, ErrInvalidQRFormat
	}

	for name, dst := range map[string]interface{}{
		"transactionId": &p.TransactionID,
		"verified":      &p.Verified,
		"token":         &p.Token,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return p, ErrInvalidQRContent
		}
	}
	return p, nil
}

// redeem applies the credential state machine. The final VALID -> USED step
// is a single conditional write, so concurrent scans see exactly one success.
func (s *VerifierService) redeem(ctx context.Context, receipt *domain.QrReceipt, now time.Time, verifiedBy string) error {
	if receipt.Status.IsTerminal() {
		return rejection(receipt)
	}
	if receipt.Status != domain.QRStatusValid {
		return ErrInvalidQRContent
	}

	if receipt.ExpiredAt(now) {
		return s.expire(ctx, receipt, now)
	}

	err := s.receipts.MarkUsed(ctx, receipt.ID, now, verifiedBy)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrStatusConflict) {
		return err
	}

	current, err := s.receipts.GetReceiptByTransaction(ctx, receipt.TransactionID)
	if err != nil {
		return mapRepoError(err)
	}
	if current.Status.IsTerminal() {
		return rejection(current)
	}
	// still VALID, so the expiry guard failed the write
	return s.expire(ctx, current, now)
}

// rejection reports why a terminal credential cannot be redeemed.
func rejection(receipt *domain.QrReceipt) error {
	if receipt.Status == domain.QRStatusUsed {
		return &AlreadyUsedError{VerifiedAt: receipt.VerifiedAt, VerifiedBy: receipt.VerifiedBy}
	}
	return ErrQRExpired
}

func (s *VerifierService) expire(ctx context.Context, receipt *domain.QrReceipt, now time.Time) error {
	err := s.receipts.MarkExpired(ctx, receipt.ID, now)
	if err != nil && !errors.Is(err, repository.ErrStatusConflict) {
		return err
	}
	if err == nil {
		recordEvent(ctx, s.outbox, receipt.TransactionID, domain.EventReceiptExpired, map[string]interface{}{
			"transaction_id": receipt.TransactionID,
			"receipt_id":     receipt.ID,
		})
		return ErrQRExpired
	}

	// someone else moved it first; report what they did
	current, errGet := s.receipts.GetReceiptByTransaction(ctx, receipt.TransactionID)
	if errGet != nil {
		return mapRepoError(errGet)
	}
	return rejection(current)
}

// GetTransactionForVerification returns a transaction with its items and
// receipt. Receipt is nil when none has been issued.
func (s *VerifierService) GetTransactionForVerification(ctx context.Context, transactionID string) (*StaffView, error) {
	tx, err := s.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	items, err := s.transactions.GetItems(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	receipt, err := s.receipts.GetReceiptByTransaction(ctx, transactionID)
	if err != nil && !errors.Is(err, repository.ErrReceiptNotFound) {
		return nil, err
	}

	return &StaffView{Transaction: tx, Items: items, Receipt: receipt}, nil
}
