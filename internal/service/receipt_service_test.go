package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidTransaction(t *testing.T, m *mockStore) *domain.Transaction {
	t.Helper()
	tx := pendingTransaction(t, m)
	paid, err := newTestPaymentService(m, nil).ConfirmPayment(context.Background(), ConfirmPaymentRequest{
		TransactionID:   tx.ID,
		PaymentIntentID: "pi_test",
	})
	require.NoError(t, err)
	return paid
}

func TestGetOrIssue_IssuesValidReceipt(t *testing.T) {
	m := seedCatalog(t)
	tx := paidTransaction(t, m)
	svc := newTestReceiptService(m)
	issuedAt := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	receipt, err := svc.GetOrIssue(context.Background(), tx.ID)
	require.NoError(t, err)

	assert.Len(t, receipt.QRToken, 64)
	assert.Equal(t, domain.QRStatusValid, receipt.Status)
	assert.False(t, receipt.IsVerified())
	assert.Equal(t, issuedAt.Add(7*24*time.Hour), receipt.ExpiresAt)
	assert.NotEmpty(t, receipt.QRImageBase64)

	var payload domain.QRPayload
	require.NoError(t, json.Unmarshal([]byte(receipt.Payload), &payload))
	assert.Equal(t, tx.ID, payload.TransactionID)
	assert.Equal(t, testStoreID, payload.StoreID)
	assert.Equal(t, 3, payload.ItemCount)
	assert.True(t, payload.Verified)
	assert.Equal(t, receipt.QRToken, payload.Token)

	assert.Contains(t, m.eventTypes(), domain.EventReceiptIssued)
}

func TestGetOrIssue_Idempotent(t *testing.T) {
	m := seedCatalog(t)
	tx := paidTransaction(t, m)
	svc := newTestReceiptService(m)
	ctx := context.Background()

	first, err := svc.GetOrIssue(ctx, tx.ID)
	require.NoError(t, err)
	second, err := svc.GetOrIssue(ctx, tx.ID)
	require.NoError(t, err)

	assert.Equal(t, first.QRToken, second.QRToken)
	assert.Equal(t, 1, m.receiptCount())
}

func TestGetOrIssue_ConcurrentIssuesOneReceipt(t *testing.T) {
	m := seedCatalog(t)
	tx := paidTransaction(t, m)
	svc := newTestReceiptService(m)

	const workers = 10
	tokens := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipt, err := svc.GetOrIssue(context.Background(), tx.ID)
			if assert.NoError(t, err) {
				tokens[i] = receipt.QRToken
			}
		}(i)
	}
	wg.Wait()

	for _, token := range tokens {
		assert.Equal(t, tokens[0], token)
	}
	assert.Equal(t, 1, m.receiptCount())
}

func TestGetOrIssue_RequiresPaidTransaction(t *testing.T) {
	m := seedCatalog(t)
	tx := pendingTransaction(t, m)
	svc := newTestReceiptService(m)

	_, err := svc.GetOrIssue(context.Background(), tx.ID)
	assert.ErrorIs(t, err, ErrNotPaid)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Zero(t, m.receiptCount())

	_, err = svc.GetOrIssue(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetOrIssue_RenderFailure(t *testing.T) {
	m := seedCatalog(t)
	tx := paidTransaction(t, m)
	r := m.repos()
	svc := NewReceiptService(r.Transactions, r.Receipts, r.Outbox, mockRenderer{err: errors.New("encode failed")}, 0)

	_, err := svc.GetOrIssue(context.Background(), tx.ID)
	assert.Error(t, err)
	assert.Zero(t, m.receiptCount())
}
