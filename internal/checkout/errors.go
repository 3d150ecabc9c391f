package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrInvalidCart          = errors.New("invalid cart")
	ErrMixedBuyers          = fmt.Errorf("%w: items belong to different buyers", ErrInvalidCart)
	ErrNothingToSubmit      = errors.New("no partitions to submit")
	ErrInvalidShipping      = errors.New("shipping address is incomplete")
	ErrMissingPaymentMethod = errors.New("payment method is required")
	ErrMissingBuyer         = errors.New("buyer id is required")
)

// UnresolvedProductError means a cart line points at a product that no
// sub-catalog knows about any more.
type UnresolvedProductError struct {
	Name       string
	ProductRef string
}

func (e *UnresolvedProductError) Error() string {
	return fmt.Sprintf("product %q is no longer available", e.Name)
}

func (e *UnresolvedProductError) Is(target error) bool {
	return target == ErrInvalidCart
}

type InvalidQuantityError struct {
	Name     string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for %q", e.Quantity, e.Name)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidCart
}

type InvalidPriceError struct {
	Name  string
	Price string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %s for %q", e.Price, e.Name)
}

func (e *InvalidPriceError) Is(target error) bool {
	return target == ErrInvalidCart
}

// PartitionOutcome records what happened to one partition during submission.
// Exactly one of OrderID and Err is set.
type PartitionOutcome struct {
	SellerID string
	OrderID  domain.OrderID
	Err      error
}

func (o PartitionOutcome) Succeeded() bool {
	return o.Err == nil
}

// SubmitError is returned when at least one sibling order could not be
// created. Orders that were created are not rolled back; their ids are in
// CreatedOrderIDs so the caller can reconcile.
type SubmitError struct {
	GroupToken      string
	Cause           error
	CreatedOrderIDs []domain.OrderID
	Outcomes        []PartitionOutcome
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("checkout %s: %d of %d orders placed, failed sellers [%s]: %v",
		e.GroupToken, len(e.CreatedOrderIDs), len(e.Outcomes), strings.Join(e.FailedSellers(), ", "), e.Cause)
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// FailedSellers lists sellers whose order was not created.
func (e *SubmitError) FailedSellers() []string {
	var sellers []string
	for _, o := range e.Outcomes {
		if !o.Succeeded() {
			sellers = append(sellers, o.SellerID)
		}
	}
	return sellers
}
