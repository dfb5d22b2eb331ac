package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Store struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	LogoURL   string    `bson:"logo_url,omitempty"`
	IsActive  bool      `bson:"is_active"`
	IsDeleted bool      `bson:"is_deleted"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Available reports whether the store can be shopped at.
func (s *Store) Available() bool {
	return s.IsActive && !s.IsDeleted
}

type Product struct {
	ID           string          `bson:"_id"`
	StoreID      string          `bson:"store_id"`
	Name         string          `bson:"name"`
	Price        decimal.Decimal `bson:"price"`
	SKU          string          `bson:"sku,omitempty"`
	BarcodeValue string          `bson:"barcode_value,omitempty"`
	ImageURL     string          `bson:"image_url,omitempty"`
	Description  string          `bson:"description,omitempty"`
	IsActive     bool            `bson:"is_active"`
	IsDeleted    bool            `bson:"is_deleted"`
	CreatedAt    time.Time       `bson:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at"`
}

func (p *Product) Available() bool {
	return p.IsActive && !p.IsDeleted
}

// ProductPatch carries the optional fields of a product update.
type ProductPatch struct {
	Name         *string
	Price        *decimal.Decimal
	SKU          *string
	BarcodeValue *string
	ImageURL     *string
	Description  *string
	IsActive     *bool
}
