package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/service"
	"github.com/go-chi/chi/v5"
)

// VerificationObserver receives the outcome code of every scan.
type VerificationObserver interface {
	ObserveVerification(outcome string)
}

type VerifyHandler struct {
	verifier VerifierService
	observer VerificationObserver
	timeout  time.Duration
}

func NewVerifyHandler(verifier VerifierService, observer VerificationObserver, timeout time.Duration) *VerifyHandler {
	return &VerifyHandler{
		verifier: verifier,
		observer: observer,
		timeout:  timeout,
	}
}

type VerifyQRRequestDTO struct {
	QRData     string `json:"qrData" validate:"required_without=QRToken"`
	QRToken    string `json:"qrToken" validate:"required_without=QRData"`
	VerifiedBy string `json:"verifiedBy"`
}

// VerifiedTransactionDTO is the redacted summary shown at the exit gate.
type VerifiedTransactionDTO struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	ItemCount int       `json:"itemCount"`
	Date      time.Time `json:"date"`
}

type VerifyQRResponseDTO struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message"`
	Transaction VerifiedTransactionDTO `json:"transaction"`
	Items       []TransactionItemDTO   `json:"items"`
	VerifiedAt  time.Time              `json:"verified_at"`
	VerifiedBy  string                 `json:"verified_by"`
}

type StaffViewDTO struct {
	Transaction TransactionDTO       `json:"transaction"`
	Items       []TransactionItemDTO `json:"items"`
	QRStatus    *QRStatusDTO         `json:"qr_status"`
}

// POST /api/verify-qr
func (h *VerifyHandler) VerifyQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyQRRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		h.observe(service.KindValidation.String())
		respondBadRequest(w, err)
		return
	}

	result, err := h.verifier.Verify(ctx, service.VerifyRequest{
		QRData:     req.QRData,
		QRToken:    req.QRToken,
		VerifiedBy: req.VerifiedBy,
	})
	if err != nil {
		h.observe(service.KindOf(err).String())
		respondServiceError(w, r, err)
		return
	}

	h.observe("success")
	respondJSON(w, http.StatusOK, VerifyQRResponseDTO{
		Success: true,
		Message: "QR code verified successfully",
		Transaction: VerifiedTransactionDTO{
			ID:        result.Transaction.ID,
			Amount:    money(result.Transaction.TotalAmount),
			ItemCount: result.ItemCount,
			Date:      result.Transaction.CreatedAt,
		},
		Items:      toItemDTOs(result.Items),
		VerifiedAt: result.VerifiedAt,
		VerifiedBy: result.VerifiedBy,
	})
}

// GET /api/verify/transaction/{id}
func (h *VerifyHandler) GetTransactionForVerification(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.verifier.GetTransactionForVerification(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := StaffViewDTO{
		Transaction: toTransactionDTO(view.Transaction),
		Items:       toItemDTOs(view.Items),
	}
	if rc := view.Receipt; rc != nil {
		resp.QRStatus = &QRStatusDTO{
			Status:     rc.Status.String(),
			IsVerified: rc.IsVerified(),
			VerifiedAt: rc.VerifiedAt,
			VerifiedBy: rc.VerifiedBy,
			ExpiresAt:  rc.ExpiresAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *VerifyHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveVerification(outcome)
	}
}
