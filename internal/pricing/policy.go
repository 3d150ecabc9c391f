package pricing

import (
	"errors"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// Two call sites of the storefront disagreed on the flat fee (100 vs 10).
// DefaultFlatShippingFee is the single value applied everywhere; deployments
// override it with FLAT_SHIPPING_FEE.
var (
	DefaultFlatShippingFee       = decimal.NewFromInt(10)
	DefaultFreeShippingThreshold = decimal.NewFromInt(100)
	DefaultTaxRate               = decimal.RequireFromString("0.15")
)

var ErrInvalidPolicy = errors.New("invalid pricing policy")

// Policy prices one seller partition from its subtotal.
type Policy struct {
	FlatShippingFee decimal.Decimal
	// Shipping is free when the items total is strictly above this value.
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		FlatShippingFee:       DefaultFlatShippingFee,
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		TaxRate:               DefaultTaxRate,
	}
}

func (p Policy) Validate() error {
	if p.FlatShippingFee.IsNegative() {
		return errors.Join(ErrInvalidPolicy, errors.New("flat shipping fee must not be negative"))
	}
	if p.FreeShippingThreshold.IsNegative() {
		return errors.Join(ErrInvalidPolicy, errors.New("free shipping threshold must not be negative"))
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Join(ErrInvalidPolicy, errors.New("tax rate must be within [0, 1]"))
	}
	return nil
}

// Compute derives shipping, tax and grand total. Each field is rounded to
// cents before it takes part in the sum, so GrandTotal always equals
// ItemsTotal + ShippingCost + TaxAmount.
func (p Policy) Compute(subtotal decimal.Decimal) domain.Pricing {
	itemsTotal := subtotal.Round(2)

	shipping := p.FlatShippingFee.Round(2)
	if itemsTotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := itemsTotal.Mul(p.TaxRate).Round(2)

	return domain.Pricing{
		ItemsTotal:   itemsTotal,
		ShippingCost: shipping,
		TaxAmount:    tax,
		GrandTotal:   itemsTotal.Add(shipping).Add(tax).Round(2),
	}
}

// Subtotal sums the unrounded line totals.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
