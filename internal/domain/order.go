package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderID string

func (id OrderID) String() string {
	return string(id)
}

type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "PENDING"
	OrderStatusNeedsReview OrderStatus = "NEEDS_REVIEW"
)

// Pricing is the price breakdown of a single seller partition.
type Pricing struct {
	ItemsTotal   decimal.Decimal `json:"items_total"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

// PartitionItem is a cart line enriched with the seller it resolved to.
type PartitionItem struct {
	CartItem
	SellerID string      `json:"seller_id"`
	Kind     ProductKind `json:"kind"`
}

// OrderPartition is the subset of a cart owned by one seller. All partitions
// built from the same checkout share GroupToken.
type OrderPartition struct {
	SellerID   string          `json:"seller_id"`
	Items      []PartitionItem `json:"items"`
	Pricing    Pricing         `json:"pricing"`
	GroupToken string          `json:"group_token"`
}

type ShippingAddress struct {
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
}

type OrderLine struct {
	ProductRef string          `json:"product_ref"`
	Kind       ProductKind     `json:"kind"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// OrderPayload is what the order store receives for one partition.
type OrderPayload struct {
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	GroupToken      string          `json:"group_token"`
	Items           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	ItemsPrice      decimal.Decimal `json:"items_price"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	TaxPrice        decimal.Decimal `json:"tax_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID OrderID `json:"id"`
	OrderPayload
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
