package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderReader interface {
	GetOrderByID(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	ListOrdersByGroupToken(ctx context.Context, groupToken string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(orders OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.orders.ListOrdersByBuyer(ctx, buyerIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GET /api/v1/seller/orders
func (h *OrdersHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.orders.ListOrdersBySeller(ctx, buyerIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, domain.OrderID(orderID))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Orders are visible to their buyer and their seller only.
	caller := buyerIDFromContext(ctx)
	if order.BuyerID != caller && order.SellerID != caller {
		handleServiceError(w, r, orders.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/orders/groups/{group_token}
func (h *OrdersHandler) GetOrderGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.orders.ListOrdersByGroupToken(ctx, chi.URLParam(r, "group_token"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	caller := buyerIDFromContext(ctx)
	own := make([]*domain.Order, 0, len(list))
	for _, o := range list {
		if o.BuyerID == caller {
			own = append(own, o)
		}
	}
	if len(own) == 0 {
		handleServiceError(w, r, orders.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, own)
}

func nonNil(list []*domain.Order) []*domain.Order {
	if list == nil {
		return []*domain.Order{}
	}
	return list
}
