package domain

import "github.com/shopspring/decimal"

type ProductKind string

const (
	KindSeed         ProductKind = "seed"
	KindMachine      ProductKind = "machine"
	KindConsumerGood ProductKind = "consumer_good"
)

func (k ProductKind) String() string {
	return string(k)
}

// Product is one of Seed, Machine or ConsumerGood. Every variant is owned by
// exactly one farmer, exposed through SellerID.
type Product interface {
	Ref() string
	SellerID() string
	DisplayName() string
	ImageURL() string
	UnitPrice() decimal.Decimal
	Kind() ProductKind

	sealed()
}

type Seed struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	FarmerID string          `json:"farmer_id"`
	Price    decimal.Decimal `json:"price"`
	Variety  string          `json:"variety,omitempty"`
	Season   string          `json:"season,omitempty"`
}

func (s Seed) Ref() string                { return s.ID }
func (s Seed) SellerID() string           { return s.FarmerID }
func (s Seed) DisplayName() string        { return s.Name }
func (s Seed) ImageURL() string           { return s.Image }
func (s Seed) UnitPrice() decimal.Decimal { return s.Price }
func (s Seed) Kind() ProductKind          { return KindSeed }
func (Seed) sealed()                      {}

type Machine struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	FarmerID string          `json:"farmer_id"`
	Price    decimal.Decimal `json:"price"`
	Brand    string          `json:"brand,omitempty"`
	ForRent  bool            `json:"for_rent,omitempty"`
}

func (m Machine) Ref() string                { return m.ID }
func (m Machine) SellerID() string           { return m.FarmerID }
func (m Machine) DisplayName() string        { return m.Name }
func (m Machine) ImageURL() string           { return m.Image }
func (m Machine) UnitPrice() decimal.Decimal { return m.Price }
func (m Machine) Kind() ProductKind          { return KindMachine }
func (Machine) sealed()                      {}

type ConsumerGood struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	FarmerID     string          `json:"farmer_id"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category,omitempty"`
	CountInStock int             `json:"count_in_stock"`
}

func (g ConsumerGood) Ref() string                { return g.ID }
func (g ConsumerGood) SellerID() string           { return g.FarmerID }
func (g ConsumerGood) DisplayName() string        { return g.Name }
func (g ConsumerGood) ImageURL() string           { return g.Image }
func (g ConsumerGood) UnitPrice() decimal.Decimal { return g.Price }
func (g ConsumerGood) Kind() ProductKind          { return KindConsumerGood }
func (ConsumerGood) sealed()                      {}
