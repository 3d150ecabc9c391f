// Package orders persists the sibling orders produced by a checkout.
package orders

import (
	"context"
	"errors"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order for this seller already exists in checkout group")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository stores one order per (group token, seller). Lists are newest
// first.
type Repository interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error)
	GetOrderByID(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	ListOrdersByGroupToken(ctx context.Context, groupToken string) ([]*domain.Order, error)
	MarkForReview(ctx context.Context, ids []domain.OrderID) (int64, error)
}
