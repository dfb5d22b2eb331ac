package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/idempotency"
	"github.com/Zia-ullah-khan/qless/internal/service"
	"github.com/shopspring/decimal"
)

const confirmScope = "payment_confirm"

type PaymentHandler struct {
	payments PaymentService
	// idem is optional; without it Idempotency-Key headers are ignored.
	idem     idempotency.Store
	currency string
	timeout  time.Duration
}

func NewPaymentHandler(payments PaymentService, idem idempotency.Store, currency string, timeout time.Duration) *PaymentHandler {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentHandler{
		payments: payments,
		idem:     idem,
		currency: currency,
		timeout:  timeout,
	}
}

type PaymentSheetRequestDTO struct {
	TransactionID string          `json:"transactionId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Currency      string          `json:"currency"`
}

type ConfirmPaymentRequestDTO struct {
	TransactionID    string `json:"transactionId" validate:"required"`
	PaymentIntentID  string `json:"paymentIntentId" validate:"required"`
	PaymentProvider  string `json:"paymentProvider"`
	PaymentReference string `json:"paymentReference"`
}

type FailPaymentRequestDTO struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Reason        string `json:"reason"`
}

type PaymentResponseDTO struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Transaction TransactionDTO `json:"transaction"`
}

// POST /api/payment/sheet
func (h *PaymentHandler) CreatePaymentSheet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentSheetRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	if req.Currency == "" {
		req.Currency = h.currency
	}

	sheet, err := h.payments.CreatePaymentSheet(ctx, service.PaymentSheetRequest{
		TransactionID: req.TransactionID,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sheet)
}

// POST /api/payment/confirm
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmPaymentRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	provider := domain.PaymentProvider(req.PaymentProvider)
	if provider != "" && !provider.Valid() {
		respondBadRequest(w, errors.New("paymentProvider is invalid"))
		return
	}

	key := ""
	if h.idem != nil {
		key = idempotency.Key(r)
	}
	fingerprint := idempotency.Fingerprint(req.TransactionID, req.PaymentIntentID)
	if key != "" {
		stored, err := h.idem.Get(ctx, confirmScope, key)
		switch {
		case err == nil && !stored.Matches(fingerprint):
			slog.WarnContext(ctx, "idempotency key reused for another request", "key", key, "txid", req.TransactionID)
			respondBadRequest(w, errors.New("idempotency key was already used for a different payment"))
			return
		case err == nil:
			replay(w, stored)
			return
		case !errors.Is(err, idempotency.ErrNotFound):
			slog.WarnContext(ctx, "idempotency lookup failed", "key", key, "error", err)
		}
	}

	tx, err := h.payments.ConfirmPayment(ctx, service.ConfirmPaymentRequest{
		TransactionID:    req.TransactionID,
		PaymentIntentID:  req.PaymentIntentID,
		PaymentProvider:  provider,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(PaymentResponseDTO{
		Success:     true,
		Message:     "Payment confirmed successfully",
		Transaction: toTransactionDTO(tx),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if key != "" {
		if err := h.idem.Save(ctx, confirmScope, key, idempotency.Response{Status: http.StatusOK, Body: body, Fingerprint: fingerprint}); err != nil {
			slog.WarnContext(ctx, "idempotency save failed", "key", key, "txid", tx.ID, "error", err)
		}
	}
	replay(w, &idempotency.Response{Status: http.StatusOK, Body: body})
}

// POST /api/payment/fail
func (h *PaymentHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req FailPaymentRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	tx, err := h.payments.FailPayment(ctx, req.TransactionID, req.Reason)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, PaymentResponseDTO{
		Success:     true,
		Message:     "Payment marked as failed",
		Transaction: toTransactionDTO(tx),
	})
}

func replay(w http.ResponseWriter, resp *idempotency.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
