package http

import (
	"time"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/shopspring/decimal"
)

// money renders an amount as a JSON number with cents precision.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

type TransactionDTO struct {
	ID               string    `json:"id"`
	StoreID          string    `json:"storeId"`
	UserID           string    `json:"userId,omitempty"`
	Subtotal         float64   `json:"subtotal"`
	TaxAmount        float64   `json:"taxAmount"`
	TotalAmount      float64   `json:"totalAmount"`
	Status           string    `json:"status"`
	PaymentMethod    string    `json:"paymentMethod,omitempty"`
	PaymentProvider  string    `json:"paymentProvider,omitempty"`
	PaymentIntentID  string    `json:"paymentIntentId,omitempty"`
	PaymentReference string    `json:"paymentReference,omitempty"`
	FailureReason    string    `json:"failureReason,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toTransactionDTO(tx *domain.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:               tx.ID,
		StoreID:          tx.StoreID,
		UserID:           tx.UserID,
		Subtotal:         money(tx.Subtotal),
		TaxAmount:        money(tx.TaxAmount),
		TotalAmount:      money(tx.TotalAmount),
		Status:           tx.Status.String(),
		PaymentMethod:    tx.PaymentMethod,
		PaymentProvider:  string(tx.PaymentProvider),
		PaymentIntentID:  tx.PaymentIntentID,
		PaymentReference: tx.PaymentReference,
		FailureReason:    tx.FailureReason,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

type TransactionItemDTO struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

func toItemDTOs(items []*domain.TransactionItem) []TransactionItemDTO {
	out := make([]TransactionItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, TransactionItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  money(item.UnitPrice),
			TotalPrice: money(item.TotalPrice),
		})
	}
	return out
}

type ReceiptDTO struct {
	QRToken    string     `json:"qr_token"`
	QRImage    string     `json:"qr_image"`
	ExpiresAt  time.Time  `json:"expires_at"`
	IsVerified bool       `json:"is_verified"`
	Status     string     `json:"status"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
}

func toReceiptDTO(r *domain.QrReceipt) ReceiptDTO {
	return ReceiptDTO{
		QRToken:    r.QRToken,
		QRImage:    r.QRImageBase64,
		ExpiresAt:  r.ExpiresAt,
		IsVerified: r.IsVerified(),
		Status:     r.Status.String(),
		VerifiedAt: r.VerifiedAt,
		VerifiedBy: r.VerifiedBy,
	}
}

// QRStatusDTO is the staff view of a receipt; the image and token are withheld.
type QRStatusDTO struct {
	Status     string     `json:"status"`
	IsVerified bool       `json:"is_verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

type StoreDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

func toStoreDTO(s *domain.Store) StoreDTO {
	return StoreDTO{ID: s.ID, Name: s.Name, LogoURL: s.LogoURL}
}

type ProductDTO struct {
	ID           string  `json:"id"`
	StoreID      string  `json:"storeId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	SKU          string  `json:"sku,omitempty"`
	BarcodeValue string  `json:"barcodeValue,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	Description  string  `json:"description,omitempty"`
	IsActive     bool    `json:"isActive"`
}

func toProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		StoreID:      p.StoreID,
		Name:         p.Name,
		Price:        money(p.Price),
		SKU:          p.SKU,
		BarcodeValue: p.BarcodeValue,
		ImageURL:     p.ImageURL,
		Description:  p.Description,
		IsActive:     p.IsActive,
	}
}

type CartItemDTO struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

type CartDTO struct {
	ID        string        `json:"id,omitempty"`
	StoreID   string        `json:"storeId"`
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"itemCount"`
	Total     float64       `json:"total"`
}

func toCartDTO(c *domain.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemDTO{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  money(item.UnitPrice),
			TotalPrice: money(item.TotalPrice),
		})
	}
	return CartDTO{
		ID:        c.ID,
		StoreID:   c.StoreID,
		Items:     items,
		ItemCount: c.ItemCount(),
		Total:     money(c.Total()),
	}
}
