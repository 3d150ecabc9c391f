package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const sharedLookupTimeout = 5 * time.Second

// Cached is a read-through Redis cache in front of another Lookup. Misses
// of the underlying catalog are not cached.
type Cached struct {
	next    Lookup
	client  *redis.Client
	baseTTL time.Duration
	sfg     singleflight.Group
}

func NewCached(next Lookup, client *redis.Client, baseTTL time.Duration) *Cached {
	if baseTTL <= 0 {
		baseTTL = 10 * time.Minute
	}
	return &Cached{
		next:    next,
		client:  client,
		baseTTL: baseTTL,
	}
}

func (c *Cached) LookupProduct(ctx context.Context, ref string) (domain.Product, error) {
	p, err := c.get(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, redis.Nil) {
		logger.FromContext(ctx).Warn().Err(err).Str("product_ref", ref).Msg("catalog cache get error")
	}

	// The shared lookup outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := c.sfg.DoChan(ref, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		product, errLookup := c.next.LookupProduct(lookupCtx, ref)
		if errLookup != nil {
			return nil, errLookup
		}
		if errSet := c.set(lookupCtx, product); errSet != nil {
			logger.FromContext(ctx).Warn().Err(errSet).Str("product_ref", ref).Msg("catalog cache set error")
		}
		return product, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(domain.Product), nil
	}
}

// Invalidate drops a cached product, e.g. after a farmer edits it.
func (c *Cached) Invalidate(ctx context.Context, ref string) error {
	if err := c.client.Del(ctx, cacheKey(ref)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *Cached) get(ctx context.Context, ref string) (domain.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(ref)).Bytes()
	if err != nil {
		return nil, err
	}
	return UnmarshalProduct(data)
}

func (c *Cached) set(ctx context.Context, p domain.Product) error {
	data, err := MarshalProduct(p)
	if err != nil {
		return err
	}
	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := c.client.Set(ctx, cacheKey(p.Ref()), data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(ref string) string {
	return fmt.Sprintf("catalog:product:%s", ref)
}
