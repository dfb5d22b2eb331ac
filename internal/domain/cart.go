package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string     `bson:"_id"`
	UserID    string     `bson:"user_id"`
	StoreID   string     `bson:"store_id"`
	Items     []CartItem `bson:"items"`
	IsActive  bool       `bson:"is_active"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

type CartItem struct {
	ProductID  string          `bson:"product_id"`
	Name       string          `bson:"name"`
	Quantity   int             `bson:"quantity"`
	UnitPrice  decimal.Decimal `bson:"unit_price"`
	TotalPrice decimal.Decimal `bson:"total_price"`
	AddedAt    time.Time       `bson:"added_at"`
}

// Total sums the line totals of the cart.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
