package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line regardless of the product variant behind it.
type LineKey struct {
	ProductRef string
	BuyerID    string
}

// CartItem is a product queued by a buyer. Name, Image and UnitPrice are
// snapshotted when the item is added and may drift from the catalog.
type CartItem struct {
	ProductRef string          `json:"product_ref"`
	BuyerID    string          `json:"buyer_id"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	AddedAt    time.Time       `json:"added_at"`
}

func (i CartItem) Key() LineKey {
	return LineKey{ProductRef: i.ProductRef, BuyerID: i.BuyerID}
}

// LineTotal is unit price times quantity, unrounded.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	BuyerID   string     `json:"buyer_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Find returns the line with the given product ref.
func (c *Cart) Find(productRef string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductRef == productRef {
			return item, true
		}
	}
	return CartItem{}, false
}
