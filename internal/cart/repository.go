// Package cart stores buyers' carts. A cart line is identified by the
// product ref together with the buyer that owns the cart document.
package cart

import (
	"context"
	"errors"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrCacheMiss       = errors.New("cache miss")
)

const MaxQuantity = 99

// Repository persists carts. AddItem adds item.Quantity to any existing line
// for the same product and fails with ErrInvalidQuantity past MaxQuantity.
type Repository interface {
	GetCart(ctx context.Context, buyerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, buyerID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, buyerID, productRef string, quantity int) error
	RemoveItem(ctx context.Context, buyerID, productRef string) error
	DeleteCart(ctx context.Context, buyerID string) error
}

type Cache interface {
	Get(ctx context.Context, buyerID string) (*domain.Cart, error)
	Set(ctx context.Context, buyerID string, cart *domain.Cart) error
	Delete(ctx context.Context, buyerID string) error
}
