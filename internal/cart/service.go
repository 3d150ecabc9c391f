package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/catalog"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const sharedLoadTimeout = 5 * time.Second

type Service struct {
	repo    Repository
	cache   Cache
	catalog catalog.Lookup
	sfg     singleflight.Group
}

func NewService(repo Repository, cache Cache, lookup catalog.Lookup) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		catalog: lookup,
	}
}

// GetCart returns the buyer's cart, or an empty one if none was stored yet.
// Concurrent reads for one buyer share a single load that is not cancelled
// with any one caller.
func (s *Service) GetCart(ctx context.Context, buyerID string) (*domain.Cart, error) {
	ch := s.sfg.DoChan(buyerID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		c, err := s.cache.Get(loadCtx, buyerID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.FromContext(ctx).Warn().Err(err).Str("buyer_id", buyerID).Msg("cart cache get error")
		}

		c, err = s.repo.GetCart(loadCtx, buyerID)
		if errors.Is(err, ErrCartNotFound) {
			now := time.Now()
			return &domain.Cart{BuyerID: buyerID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		if errSet := s.cache.Set(loadCtx, buyerID, c); errSet != nil {
			logger.FromContext(ctx).Warn().Err(errSet).Str("buyer_id", buyerID).Msg("cart cache set error")
		}

		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Cart), nil
	}
}

// AddItem adds quantity units of a catalog product. Name, image and price are
// copied from the catalog at this point; adding a product already in the cart
// raises its quantity and refreshes the copy. The repository applies the
// increment atomically and rejects totals above MaxQuantity.
func (s *Service) AddItem(ctx context.Context, buyerID, productRef string, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}

	product, err := s.catalog.LookupProduct(ctx, productRef)
	if err != nil {
		return err
	}

	item := domain.CartItem{
		ProductRef: product.Ref(),
		BuyerID:    buyerID,
		Name:       product.DisplayName(),
		Image:      product.ImageURL(),
		UnitPrice:  product.UnitPrice(),
		Quantity:   quantity,
	}
	if err := s.repo.AddItem(ctx, buyerID, item); err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			return err
		}
		logger.FromContext(ctx).Error().Err(err).Str("buyer_id", buyerID).Msg("repo add item error")
		return err
	}

	s.invalidateCache(buyerID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, buyerID, productRef string, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if err := s.repo.UpdateItemQuantity(ctx, buyerID, productRef, quantity); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("buyer_id", buyerID).Msg("repo update item quantity error")
		return err
	}

	s.invalidateCache(buyerID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, buyerID, productRef string) error {
	if err := s.repo.RemoveItem(ctx, buyerID, productRef); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("buyer_id", buyerID).Msg("repo remove item error")
		return err
	}

	s.invalidateCache(buyerID)
	return nil
}

// ClearCart empties the buyer's cart. Clearing a cart that does not exist
// is not an error.
func (s *Service) ClearCart(ctx context.Context, buyerID string) error {
	if err := s.repo.DeleteCart(ctx, buyerID); err != nil && !errors.Is(err, ErrCartNotFound) {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.invalidateCache(buyerID)
	return nil
}

func (s *Service) invalidateCache(buyerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, buyerID); err != nil {
		logger.L().Warn().Err(err).Str("buyer_id", buyerID).Msg("cart cache invalidate error")
	}
}
