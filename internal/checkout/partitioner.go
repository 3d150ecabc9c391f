package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/catalog"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/pricing"
	"github.com/google/uuid"
)

// ProductLookup resolves a cart product ref against the union of all
// sub-catalogs. A miss is reported as catalog.ErrProductNotFound.
type ProductLookup interface {
	LookupProduct(ctx context.Context, ref string) (domain.Product, error)
}

type Partitioner struct {
	policy   pricing.Policy
	newToken func() string
}

func NewPartitioner(policy pricing.Policy) *Partitioner {
	return &Partitioner{
		policy:   policy,
		newToken: func() string { return uuid.NewString() },
	}
}

// Partition splits a cart into one priced partition per seller. It fails as a
// whole: either every item is resolved, validated and placed, or no partition
// is returned.
func (p *Partitioner) Partition(ctx context.Context, items []domain.CartItem, lookup ProductLookup) ([]domain.OrderPartition, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	resolved := make([]domain.PartitionItem, 0, len(items))
	for _, item := range items {
		product, err := lookup.LookupProduct(ctx, item.ProductRef)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, &UnresolvedProductError{Name: item.Name, ProductRef: item.ProductRef}
		}
		if err != nil {
			return nil, fmt.Errorf("lookup product %s: %w", item.ProductRef, err)
		}
		// a listing without a farmer cannot be attributed to any order
		if strings.TrimSpace(product.SellerID()) == "" {
			return nil, &UnresolvedProductError{Name: item.Name, ProductRef: item.ProductRef}
		}
		resolved = append(resolved, domain.PartitionItem{
			CartItem: item,
			SellerID: product.SellerID(),
			Kind:     product.Kind(),
		})
	}

	buyerID := items[0].BuyerID
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{Name: item.Name, Quantity: item.Quantity}
		}
		if !item.UnitPrice.IsPositive() {
			return nil, &InvalidPriceError{Name: item.Name, Price: item.UnitPrice.String()}
		}
		if item.BuyerID != buyerID {
			return nil, ErrMixedBuyers
		}
	}

	var order []string
	groups := make(map[string][]domain.PartitionItem)
	for _, item := range resolved {
		if _, seen := groups[item.SellerID]; !seen {
			order = append(order, item.SellerID)
		}
		groups[item.SellerID] = append(groups[item.SellerID], item)
	}

	token := p.newToken()
	partitions := make([]domain.OrderPartition, 0, len(order))
	for _, sellerID := range order {
		group := groups[sellerID]
		lines := make([]domain.CartItem, len(group))
		for i, item := range group {
			lines[i] = item.CartItem
		}
		partitions = append(partitions, domain.OrderPartition{
			SellerID:   sellerID,
			Items:      group,
			Pricing:    p.policy.Compute(pricing.Subtotal(lines)),
			GroupToken: token,
		})
	}

	return partitions, nil
}
