package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/cart"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/catalog"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/orders"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/circuitbreaker"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// PartialCheckoutResponse is returned when some sibling orders were placed
// and others were not.
type PartialCheckoutResponse struct {
	ErrorResponse
	GroupToken      string           `json:"group_token"`
	CreatedOrderIDs []domain.OrderID `json:"created_order_ids"`
	FailedSellers   []string         `json:"failed_sellers"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L().Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var submitErr *checkout.SubmitError
	if errors.As(err, &submitErr) {
		created := submitErr.CreatedOrderIDs
		if created == nil {
			created = []domain.OrderID{}
		}
		respondJSON(w, http.StatusBadGateway, PartialCheckoutResponse{
			ErrorResponse: ErrorResponse{
				Error:   "some orders could not be placed",
				Code:    "partial_checkout",
				Details: submitErr.Cause.Error(),
			},
			GroupToken:      submitErr.GroupToken,
			CreatedOrderIDs: created,
			FailedSellers:   submitErr.FailedSellers(),
		})
		return
	}

	var status int
	var code string

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		status, code = http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, checkout.ErrInvalidCart):
		status, code = http.StatusUnprocessableEntity, "invalid_cart"
	case errors.Is(err, checkout.ErrInvalidShipping),
		errors.Is(err, checkout.ErrMissingPaymentMethod),
		errors.Is(err, cart.ErrInvalidQuantity):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, checkout.ErrMissingBuyer):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, orders.ErrDuplicateOrder):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, status, code, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
