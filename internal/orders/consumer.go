package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/events"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ReviewConsumer flags orders named in checkout.partial events. Other event
// types on the topic are skipped.
type ReviewConsumer struct {
	store  reviewStore
	reader messageReader
	// backoff after a failed read, doubled up to maxBackoff
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewReviewConsumer(store reviewStore, brokers ...string) *ReviewConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    events.Topic,
		GroupID:  "orders-review",
		MaxBytes: 10e6, // 10MB
	})
	return &ReviewConsumer{
		store:      store,
		reader:     reader,
		backoff:    500 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
}

// Run consumes until ctx is done or the reader is closed. Read failures are
// retried with exponential backoff.
func (c *ReviewConsumer) Run(ctx context.Context) {
	base, limit := c.backoff, c.maxBackoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if limit < base {
		limit = base
	}

	wait := base
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.processMessage(ctx)
		switch {
		case err == nil:
			wait = base
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case errors.Is(err, io.EOF), errors.Is(err, kafka.ErrGroupClosed):
			logger.L().Info().Err(err).Msg("kafka reader closed, review consumer stopping")
			return
		}

		logger.L().Error().Err(err).Dur("retry_in", wait).Msg("error reading message")
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if wait *= 2; wait > limit {
			wait = limit
		}
	}
}

func (c *ReviewConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		logger.L().Error().Err(err).Msg("error closing kafka reader")
	}
}

// processMessage returns only read errors; handling failures are logged.
func (c *ReviewConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	if err := c.handle(ctx, m); err != nil {
		logger.L().Error().Err(err).Str("key", string(m.Key)).Msg("failed to handle checkout event")
	}
	return nil
}

func (c *ReviewConsumer) handle(ctx context.Context, m kafka.Message) error {
	if events.EventType(m) != events.TypeCheckoutPartial {
		return nil
	}

	var event events.CheckoutEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}

	ids := make([]domain.OrderID, len(event.OrderIDs))
	for i, id := range event.OrderIDs {
		ids[i] = domain.OrderID(id)
	}

	n, err := c.store.MarkForReview(ctx, ids)
	if err != nil {
		return fmt.Errorf("mark checkout %s for review: %w", event.GroupToken, err)
	}
	logger.L().Warn().
		Str("group_token", event.GroupToken).
		Strs("failed_sellers", event.FailedSellers).
		Int64("orders", n).
		Msg("orders flagged for review")
	return nil
}
