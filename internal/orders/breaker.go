package orders

import (
	"context"
	"errors"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
)

type Creator interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error)
}

// BreakerCreator stops calling the order store after repeated failures so a
// checkout against a dead store fails fast instead of waiting on timeouts.
type BreakerCreator struct {
	next Creator
	cb   *gobreaker.CircuitBreaker[domain.OrderID]
}

func NewBreakerCreator(next Creator, s circuitbreaker.Settings) *BreakerCreator {
	s.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrDuplicateOrder) || errors.Is(err, context.Canceled)
	}
	return &BreakerCreator{
		next: next,
		cb:   circuitbreaker.New[domain.OrderID](s),
	}
}

func (b *BreakerCreator) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error) {
	return b.cb.Execute(func() (domain.OrderID, error) {
		return b.next.CreateOrder(ctx, payload)
	})
}
