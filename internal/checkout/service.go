package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type CartStore interface {
	GetCart(ctx context.Context, buyerID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, buyerID string) error
}

type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, buyerID string, result *SubmitResult) error
}

// CompensationHook is told about sibling orders that were placed while others
// failed, so they can be flagged for manual reconciliation.
type CompensationHook interface {
	OnPartialCheckout(ctx context.Context, buyerID string, submitErr *SubmitError) error
}

type CheckoutRequest struct {
	BuyerID         string
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

type CheckoutResult struct {
	GroupToken string
	Partitions []domain.OrderPartition
	OrderIDs   []domain.OrderID
}

type Service struct {
	carts       CartStore
	catalog     ProductLookup
	orders      OrderCreator
	partitioner *Partitioner
	events      EventPublisher
	compensate  CompensationHook
	metrics     *metrics.CheckoutMetrics
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithCompensation(h CompensationHook) Option {
	return func(s *Service) { s.compensate = h }
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(carts CartStore, catalog ProductLookup, orders OrderCreator, partitioner *Partitioner, opts ...Option) *Service {
	s := &Service{
		carts:       carts,
		catalog:     catalog,
		orders:      orders,
		partitioner: partitioner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview partitions and prices the buyer's cart without placing anything.
func (s *Service) Preview(ctx context.Context, buyerID string) ([]domain.OrderPartition, error) {
	cart, err := s.carts.GetCart(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return s.partitioner.Partition(ctx, cart.Items, s.catalog)
}

func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.Checkout")
	defer span.End()
	log := logger.FromContext(ctx)

	if err := validateRequest(req); err != nil {
		s.metrics.ObserveCheckout(metrics.ResultInvalid, 0, 0, 0)
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, req.BuyerID)
	if err != nil {
		s.metrics.ObserveCheckout(metrics.ResultError, 0, 0, 0)
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	partitions, err := s.partitioner.Partition(ctx, cart.Items, s.catalog)
	if err != nil {
		if errors.Is(err, ErrInvalidCart) || errors.Is(err, ErrEmptyCart) {
			s.metrics.ObserveCheckout(metrics.ResultInvalid, 0, 0, 0)
		} else {
			s.metrics.ObserveCheckout(metrics.ResultError, 0, 0, 0)
		}
		log.Warn().Err(err).Str("buyer_id", req.BuyerID).Msg("checkout rejected")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("checkout.group_token", partitions[0].GroupToken),
		attribute.Int("checkout.partitions", len(partitions)),
	)

	shared := SharedContext{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		BuyerID:         req.BuyerID,
	}
	result, err := Submit(ctx, partitions, shared, s.orders)
	if err != nil {
		var submitErr *SubmitError
		if errors.As(err, &submitErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "partial checkout")
			failed := len(submitErr.Outcomes) - len(submitErr.CreatedOrderIDs)
			s.metrics.ObserveCheckout(metrics.ResultPartial, len(partitions), len(submitErr.CreatedOrderIDs), failed)
			log.Error().Err(submitErr.Cause).
				Str("group_token", submitErr.GroupToken).
				Strs("failed_sellers", submitErr.FailedSellers()).
				Int("created", len(submitErr.CreatedOrderIDs)).
				Msg("checkout partially failed")
			s.runCompensation(ctx, req.BuyerID, submitErr)
			return nil, submitErr
		}
		s.metrics.ObserveCheckout(metrics.ResultError, len(partitions), 0, 0)
		return nil, err
	}

	s.metrics.ObserveCheckout(metrics.ResultSuccess, len(partitions), len(result.OrderIDs), 0)
	log.Info().Str("group_token", result.GroupToken).Int("orders", len(result.OrderIDs)).Msg("checkout completed")

	if err := s.carts.ClearCart(ctx, req.BuyerID); err != nil {
		// orders are placed at this point, a stale cart does not fail the checkout
		log.Error().Err(err).Str("buyer_id", req.BuyerID).Msg("failed to clear cart after checkout")
	}
	if s.events != nil {
		if err := s.events.PublishCheckoutCompleted(ctx, req.BuyerID, result); err != nil {
			log.Error().Err(err).Str("group_token", result.GroupToken).Msg("failed to publish checkout completed event")
		}
	}

	return &CheckoutResult{
		GroupToken: result.GroupToken,
		Partitions: partitions,
		OrderIDs:   result.OrderIDs,
	}, nil
}

func (s *Service) runCompensation(ctx context.Context, buyerID string, submitErr *SubmitError) {
	if s.compensate == nil || len(submitErr.CreatedOrderIDs) == 0 {
		return
	}
	// the request context may already be cancelled; compensation must still run
	if err := s.compensate.OnPartialCheckout(context.WithoutCancel(ctx), buyerID, submitErr); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("group_token", submitErr.GroupToken).Msg("compensation hook failed")
	}
}

func validateRequest(req CheckoutRequest) error {
	if strings.TrimSpace(req.BuyerID) == "" {
		return ErrMissingBuyer
	}
	a := req.ShippingAddress
	if strings.TrimSpace(a.Address) == "" || strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.PostalCode) == "" || strings.TrimSpace(a.Country) == "" {
		return ErrInvalidShipping
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return ErrMissingPaymentMethod
	}
	return nil
}
