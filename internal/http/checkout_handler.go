package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
)

type CheckoutService interface {
	Preview(ctx context.Context, buyerID string) ([]domain.OrderPartition, error)
	Checkout(ctx context.Context, req checkout.CheckoutRequest) (*checkout.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkouts CheckoutService
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		timeout:   timeout,
	}
}

type CheckoutRequestDTO struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

type PlacedOrderDTO struct {
	OrderID  domain.OrderID         `json:"order_id,omitempty"`
	SellerID string                 `json:"seller_id"`
	Items    []domain.PartitionItem `json:"items"`
	Pricing  domain.Pricing         `json:"pricing"`
}

type CheckoutResponseDTO struct {
	GroupToken string           `json:"group_token"`
	Orders     []PlacedOrderDTO `json:"orders"`
}

// POST /api/v1/checkout/preview
func (h *CheckoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	partitions, err := h.checkouts.Preview(ctx, buyerIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := CheckoutResponseDTO{Orders: make([]PlacedOrderDTO, len(partitions))}
	for i, p := range partitions {
		resp.GroupToken = p.GroupToken
		resp.Orders[i] = PlacedOrderDTO{SellerID: p.SellerID, Items: p.Items, Pricing: p.Pricing}
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.checkouts.Checkout(ctx, checkout.CheckoutRequest{
		BuyerID:         buyerIDFromContext(ctx),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// OrderIDs follow partition order.
	resp := CheckoutResponseDTO{
		GroupToken: result.GroupToken,
		Orders:     make([]PlacedOrderDTO, len(result.Partitions)),
	}
	for i, p := range result.Partitions {
		resp.Orders[i] = PlacedOrderDTO{SellerID: p.SellerID, Items: p.Items, Pricing: p.Pricing}
		if i < len(result.OrderIDs) {
			resp.Orders[i].OrderID = result.OrderIDs[i]
		}
	}
	respondJSON(w, http.StatusCreated, resp)
}
