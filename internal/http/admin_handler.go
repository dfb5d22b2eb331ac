package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewAdminHandler(catalog CatalogService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type CreateStoreRequestDTO struct {
	Name    string `json:"name" validate:"required"`
	LogoURL string `json:"logo_url" validate:"omitempty,url"`
}

type CreateProductRequestDTO struct {
	StoreID      string          `json:"storeId" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price"`
	SKU          string          `json:"sku"`
	BarcodeValue string          `json:"barcode_value"`
	ImageURL     string          `json:"image_url" validate:"omitempty,url"`
	Description  string          `json:"description"`
}

type UpdateProductRequestDTO struct {
	Name         *string          `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	SKU          *string          `json:"sku"`
	BarcodeValue *string          `json:"barcode_value"`
	ImageURL     *string          `json:"image_url"`
	Description  *string          `json:"description"`
	IsActive     *bool            `json:"is_active"`
}

// POST /api/admin/stores
func (h *AdminHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateStoreRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	store, err := h.catalog.CreateStore(ctx, req.Name, req.LogoURL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toStoreDTO(store))
}

// POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, service.NewProduct{
		StoreID:      req.StoreID,
		Name:         req.Name,
		Price:        req.Price,
		SKU:          req.SKU,
		BarcodeValue: req.BarcodeValue,
		ImageURL:     req.ImageURL,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProductDTO(product))
}

// PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), domain.ProductPatch{
		Name:         req.Name,
		Price:        req.Price,
		SKU:          req.SKU,
		BarcodeValue: req.BarcodeValue,
		ImageURL:     req.ImageURL,
		Description:  req.Description,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductDTO(product))
}

// DELETE /api/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Product removed"})
}
