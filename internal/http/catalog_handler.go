package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ScanBarcodeRequestDTO struct {
	Barcode string `json:"barcode" validate:"required"`
	StoreID string `json:"storeId"`
}

// GET /api/stores
func (h *CatalogHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stores, err := h.catalog.ListStores(ctx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]StoreDTO, 0, len(stores))
	for _, s := range stores {
		out = append(out, toStoreDTO(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/stores/{id}
func (h *CatalogHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := h.catalog.GetStore(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStoreDTO(store))
}

// GET /api/stores/{id}/products
func (h *CatalogHandler) ListStoreProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListStoreProducts(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/scan-barcode
func (h *CatalogHandler) ScanBarcode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ScanBarcodeRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	product, err := h.catalog.ScanBarcode(ctx, req.Barcode, req.StoreID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductDTO(product))
}
