package http

import (
	"context"
	"net/http"
	"time"
)

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	StoreID   string `json:"storeId" validate:"required"`
}

type UpdateQuantityRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	StoreID   string `json:"storeId"`
}

type RemoveItemRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
	StoreID   string `json:"storeId"`
}

// GET /api/cart?storeId=
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(ctx, userID, r.URL.Query().Get("storeId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(cart))
}

// POST /api/cart/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	cart, err := h.carts.AddItem(ctx, userID, req.StoreID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartDTO(cart))
}

// PUT /api/cart/update
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, userID, req.StoreID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(cart))
}

// DELETE /api/cart/remove
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req RemoveItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	cart, err := h.carts.RemoveItem(ctx, userID, req.StoreID, req.ProductID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(cart))
}

// DELETE /api/cart?storeId=
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.ClearCart(ctx, userID, r.URL.Query().Get("storeId")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Cart cleared"})
}
