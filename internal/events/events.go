// Package events publishes checkout outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	Topic           = "checkout-events"
	HeaderEventType = "event_type"

	TypeCheckoutCompleted = "checkout.completed"
	TypeCheckoutPartial   = "checkout.partial"
)

// CheckoutEvent is the message body for both event types. FailedSellers and
// Error are only set on checkout.partial.
type CheckoutEvent struct {
	GroupToken    string    `json:"group_token"`
	BuyerID       string    `json:"buyer_id"`
	OrderIDs      []string  `json:"order_ids"`
	FailedSellers []string  `json:"failed_sellers,omitempty"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher keys every message by group token so all events of one checkout
// land on the same partition.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, now: time.Now}
}

func (p *Publisher) PublishCheckoutCompleted(ctx context.Context, buyerID string, result *checkout.SubmitResult) error {
	return p.publish(ctx, TypeCheckoutCompleted, CheckoutEvent{
		GroupToken: result.GroupToken,
		BuyerID:    buyerID,
		OrderIDs:   orderIDStrings(result.OrderIDs),
		OccurredAt: p.now().UTC(),
	})
}

// OnPartialCheckout announces a partially placed checkout so the order store
// can flag the sibling orders that were created.
func (p *Publisher) OnPartialCheckout(ctx context.Context, buyerID string, submitErr *checkout.SubmitError) error {
	return p.publish(ctx, TypeCheckoutPartial, CheckoutEvent{
		GroupToken:    submitErr.GroupToken,
		BuyerID:       buyerID,
		OrderIDs:      orderIDStrings(submitErr.CreatedOrderIDs),
		FailedSellers: submitErr.FailedSellers(),
		Error:         submitErr.Cause.Error(),
		OccurredAt:    p.now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, event CheckoutEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.GroupToken),
		Value: payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	logger.FromContext(ctx).Debug().Str("event_type", eventType).Str("group_token", event.GroupToken).Msg("event published")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// EventType returns the event_type header of a message, or "" if absent.
func EventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == HeaderEventType {
			return string(h.Value)
		}
	}
	return ""
}

func orderIDStrings(ids []domain.OrderID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
