package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/qrcode"
	"github.com/Zia-ullah-khan/qless/internal/repository"
)

const (
	DefaultReceiptTTL = 7 * 24 * time.Hour
	tokenBytes        = 32
)

// ReceiptService issues the single exit credential of a paid transaction.
type ReceiptService struct {
	transactions repository.TransactionRepository
	receipts     repository.ReceiptRepository
	outbox       repository.OutboxRepository
	renderer     qrcode.Renderer
	ttl          time.Duration
	now          func() time.Time
}

func NewReceiptService(
	transactions repository.TransactionRepository,
	receipts repository.ReceiptRepository,
	outbox repository.OutboxRepository,
	renderer qrcode.Renderer,
	ttl time.Duration,
) *ReceiptService {
	if ttl <= 0 {
		ttl = DefaultReceiptTTL
	}
	return &ReceiptService{
		transactions: transactions,
		receipts:     receipts,
		outbox:       outbox,
		renderer:     renderer,
		ttl:          ttl,
		now:          time.Now,
	}
}

// GetOrIssue returns the transaction's receipt, minting it on first request.
// Repeated and concurrent calls all observe the same token.
func (s *ReceiptService) GetOrIssue(ctx context.Context, transactionID string) (*domain.QrReceipt, error) {
	tx, err := s.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if tx.Status != domain.TransactionStatusPaid {
		return nil, ErrNotPaid
	}

	existing, err := s.receipts.GetReceiptByTransaction(ctx, transactionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrReceiptNotFound) {
		return nil, err
	}

	items, err := s.transactions.GetItems(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	itemCount := 0
	for _, item := range items {
		itemCount += item.Quantity
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	issuedAt := s.now().UTC()
	payload, err := json.Marshal(domain.QRPayload{
		TransactionID: tx.ID,
		StoreID:       tx.StoreID,
		ItemCount:     itemCount,
		Timestamp:     issuedAt,
		Verified:      true,
		Token:         token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build qr payload: %w", err)
	}

	image, err := s.renderer.DataURL(string(payload))
	if err != nil {
		return nil, err
	}

	receipt := &domain.QrReceipt{
		TransactionID: tx.ID,
		QRToken:       token,
		QRImageBase64: image,
		Payload:       string(payload),
		Status:        domain.QRStatusValid,
		ExpiresAt:     issuedAt.Add(s.ttl),
	}
	err = s.receipts.CreateReceipt(ctx, receipt)
	if errors.Is(err, repository.ErrReceiptExists) {
		// a concurrent request issued first; its receipt is the only one
		return s.receipts.GetReceiptByTransaction(ctx, transactionID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "receipt issue failed", "txid", tx.ID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "receipt issued", "txid", tx.ID, "step", "issue_receipt", "status", receipt.Status.String())
	recordEvent(ctx, s.outbox, tx.ID, domain.EventReceiptIssued, map[string]interface{}{
		"transaction_id": tx.ID,
		"receipt_id":     receipt.ID,
		"expires_at":     receipt.ExpiresAt,
	})
	return receipt, nil
}

// newToken returns 256 bits of randomness, hex encoded.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
