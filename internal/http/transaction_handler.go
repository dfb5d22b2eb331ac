package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type TransactionHandler struct {
	transactions TransactionService
	receipts     ReceiptService
	timeout      time.Duration
}

func NewTransactionHandler(transactions TransactionService, receipts ReceiptService, timeout time.Duration) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		receipts:     receipts,
		timeout:      timeout,
	}
}

// GET /api/transaction/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.transactions.GetTransaction(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// GET /api/transaction/{id}/items
func (h *TransactionHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.transactions.GetItems(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemDTOs(items))
}

// GET /api/transaction/{id}/qr
func (h *TransactionHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	receipt, err := h.receipts.GetOrIssue(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReceiptDTO(receipt))
}
