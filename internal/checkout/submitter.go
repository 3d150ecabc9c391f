package checkout

import (
	"context"
	"sync"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
)

// OrderCreator persists one sibling order and returns its durable id.
type OrderCreator interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error)
}

type OrderCreatorFunc func(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error)

func (f OrderCreatorFunc) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error) {
	return f(ctx, payload)
}

// SharedContext is the part of every sibling order that does not depend on
// the seller.
type SharedContext struct {
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	BuyerID         string
}

type SubmitResult struct {
	GroupToken string
	OrderIDs   []domain.OrderID
	Outcomes   []PartitionOutcome
}

// BuildPayload combines a partition with the shared checkout context.
func BuildPayload(partition domain.OrderPartition, shared SharedContext) domain.OrderPayload {
	lines := make([]domain.OrderLine, len(partition.Items))
	for i, item := range partition.Items {
		lines[i] = domain.OrderLine{
			ProductRef: item.ProductRef,
			Kind:       item.Kind,
			Name:       item.Name,
			Image:      item.Image,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		}
	}
	return domain.OrderPayload{
		BuyerID:         shared.BuyerID,
		SellerID:        partition.SellerID,
		GroupToken:      partition.GroupToken,
		Items:           lines,
		ShippingAddress: shared.ShippingAddress,
		PaymentMethod:   shared.PaymentMethod,
		ItemsPrice:      partition.Pricing.ItemsTotal,
		ShippingPrice:   partition.Pricing.ShippingCost,
		TaxPrice:        partition.Pricing.TaxAmount,
		TotalPrice:      partition.Pricing.GrandTotal,
	}
}

// Submit creates one order per partition, all at once, and waits for every
// call to settle. Nothing is retried and nothing is rolled back: when any call
// fails the returned *SubmitError lists the orders that do exist.
func Submit(ctx context.Context, partitions []domain.OrderPartition, shared SharedContext, creator OrderCreator) (*SubmitResult, error) {
	if len(partitions) == 0 {
		return nil, ErrNothingToSubmit
	}

	outcomes := make([]PartitionOutcome, len(partitions))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, partition := range partitions {
		wg.Add(1)
		go func(i int, partition domain.OrderPartition) {
			defer wg.Done()

			id, err := creator.CreateOrder(ctx, BuildPayload(partition, shared))
			outcomes[i] = PartitionOutcome{SellerID: partition.SellerID, OrderID: id, Err: err}
			if err != nil {
				outcomes[i].OrderID = ""
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i, partition)
	}
	wg.Wait()

	created := make([]domain.OrderID, 0, len(partitions))
	for _, o := range outcomes {
		if o.Succeeded() {
			created = append(created, o.OrderID)
		}
	}

	token := partitions[0].GroupToken
	if firstErr != nil {
		return nil, &SubmitError{
			GroupToken:      token,
			Cause:           firstErr,
			CreatedOrderIDs: created,
			Outcomes:        outcomes,
		}
	}

	return &SubmitResult{
		GroupToken: token,
		OrderIDs:   created,
		Outcomes:   outcomes,
	}, nil
}
