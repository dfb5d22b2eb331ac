package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/service"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutItemDTO struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Price     *decimal.Decimal `json:"price"`
	LineTotal *decimal.Decimal `json:"lineTotal"`
}

type CreateCheckoutRequestDTO struct {
	StoreID       string            `json:"storeId" validate:"required"`
	Items         []CheckoutItemDTO `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"paymentMethod"`
	TotalAmount   *decimal.Decimal  `json:"totalAmount"`
}

type CheckoutResponseDTO struct {
	Success       bool                 `json:"success"`
	TransactionID string               `json:"transactionId"`
	Status        string               `json:"status"`
	Subtotal      float64              `json:"subtotal"`
	TaxAmount     float64              `json:"taxAmount"`
	TotalAmount   float64              `json:"totalAmount"`
	Items         []TransactionItemDTO `json:"items"`
	QRCode        string               `json:"qrCode"`
	Message       string               `json:"message"`
}

// POST /api/checkout/create
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateCheckoutRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID := strings.TrimSpace(item.ID)
		if productID == "" {
			productID = strings.TrimSpace(item.ProductID)
		}
		items = append(items, service.CheckoutItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal,
		})
	}

	result, err := h.checkout.Checkout(ctx, service.CheckoutRequest{
		UserID:        getUserIDFromContext(r.Context()),
		StoreID:       req.StoreID,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	tx := result.Transaction
	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Success:       true,
		TransactionID: tx.ID,
		Status:        tx.Status.String(),
		Subtotal:      money(tx.Subtotal),
		TaxAmount:     money(tx.TaxAmount),
		TotalAmount:   money(tx.TotalAmount),
		Items:         toItemDTOs(result.Items),
		QRCode:        result.QRCode,
		Message:       result.Message,
	})
}
