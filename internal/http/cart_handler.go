package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	GetCart(ctx context.Context, buyerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, buyerID, productRef string, quantity int) error
	UpdateQuantity(ctx context.Context, buyerID, productRef string, quantity int) error
	RemoveItem(ctx context.Context, buyerID, productRef string) error
	ClearCart(ctx context.Context, buyerID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.GetCart(ctx, buyerIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}

	respondJSON(w, http.StatusOK, c)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductRef == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_ref", "product_ref is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	buyerID := buyerIDFromContext(ctx)
	if err := h.carts.AddItem(ctx, buyerID, req.ProductRef, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusCreated, buyerID)
}

// PUT /api/v1/cart/items/{product_ref}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productRef := chi.URLParam(r, "product_ref")
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	buyerID := buyerIDFromContext(ctx)
	if err := h.carts.UpdateQuantity(ctx, buyerID, productRef, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusOK, buyerID)
}

// DELETE /api/v1/cart/items/{product_ref}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := buyerIDFromContext(ctx)
	if err := h.carts.RemoveItem(ctx, buyerID, chi.URLParam(r, "product_ref")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusOK, buyerID)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.ClearCart(ctx, buyerIDFromContext(ctx)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, status int, buyerID string) {
	c, err := h.carts.GetCart(ctx, buyerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	respondJSON(w, status, c)
}
