package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/events"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/circuitbreaker"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	m      sync.Mutex
	marked [][]domain.OrderID
	err    error
}

func (s *mockStore) MarkForReview(_ context.Context, ids []domain.OrderID) (int64, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.marked = append(s.marked, ids)
	return int64(len(ids)), nil
}

type creatorFunc func(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error)

func (f creatorFunc) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error) {
	return f(ctx, payload)
}

func testPayload(seller string) domain.OrderPayload {
	return domain.OrderPayload{
		BuyerID:    "buyer-1",
		SellerID:   seller,
		GroupToken: "group-1",
		Items: []domain.OrderLine{{
			ProductRef: "seed-1",
			Kind:       domain.KindSeed,
			Name:       "Wheat seeds",
			UnitPrice:  decimal.RequireFromString("30"),
			Quantity:   4,
		}},
		ShippingAddress: domain.ShippingAddress{Address: "1 Farm Rd", City: "Pune", PostalCode: "411001", Country: "India"},
		PaymentMethod:   "PayPal",
		ItemsPrice:      decimal.RequireFromString("120"),
		ShippingPrice:   decimal.Zero,
		TaxPrice:        decimal.RequireFromString("18"),
		TotalPrice:      decimal.RequireFromString("138"),
	}
}

func TestBreakerCreator_TripsAfterFailures(t *testing.T) {
	calls := 0
	boom := errors.New("store down")
	next := creatorFunc(func(context.Context, domain.OrderPayload) (domain.OrderID, error) {
		calls++
		return "", boom
	})

	s := circuitbreaker.DefaultSettings("orders-test")
	s.ConsecutiveFailures = 2
	b := NewBreakerCreator(next, s)

	for i := 0; i < 2; i++ {
		_, err := b.CreateOrder(context.Background(), testPayload("a"))
		assert.ErrorIs(t, err, boom)
	}
	_, err := b.CreateOrder(context.Background(), testPayload("a"))
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestBreakerCreator_DuplicatesDoNotTrip(t *testing.T) {
	next := creatorFunc(func(context.Context, domain.OrderPayload) (domain.OrderID, error) {
		return "", ErrDuplicateOrder
	})
	s := circuitbreaker.DefaultSettings("orders-dup")
	s.ConsecutiveFailures = 1
	b := NewBreakerCreator(next, s)

	for i := 0; i < 3; i++ {
		_, err := b.CreateOrder(context.Background(), testPayload("a"))
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	}
}

func TestBreakerCreator_PassesThrough(t *testing.T) {
	next := creatorFunc(func(_ context.Context, p domain.OrderPayload) (domain.OrderID, error) {
		return domain.OrderID("order-" + p.SellerID), nil
	})
	b := NewBreakerCreator(next, circuitbreaker.DefaultSettings("orders-ok"))

	id, err := b.CreateOrder(context.Background(), testPayload("a"))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderID("order-a"), id)
}

func TestReviewMarker(t *testing.T) {
	store := &mockStore{}
	marker := NewReviewMarker(store)

	err := marker.OnPartialCheckout(context.Background(), "buyer-1", &checkout.SubmitError{
		GroupToken:      "group-1",
		Cause:           errors.New("down"),
		CreatedOrderIDs: []domain.OrderID{"o-1", "o-3"},
	})
	require.NoError(t, err)
	require.Len(t, store.marked, 1)
	assert.Equal(t, []domain.OrderID{"o-1", "o-3"}, store.marked[0])
}

func TestReviewMarker_StoreError(t *testing.T) {
	boom := errors.New("mongo down")
	marker := NewReviewMarker(&mockStore{err: boom})

	err := marker.OnPartialCheckout(context.Background(), "buyer-1", &checkout.SubmitError{GroupToken: "g", Cause: boom})
	assert.ErrorIs(t, err, boom)
}

func eventMessage(t *testing.T, eventType string, event events.CheckoutEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{
		Key:     []byte(event.GroupToken),
		Value:   payload,
		Headers: []kafka.Header{{Key: events.HeaderEventType, Value: []byte(eventType)}},
	}
}

func TestReviewConsumer_HandlePartial(t *testing.T) {
	store := &mockStore{}
	c := &ReviewConsumer{store: store}

	msg := eventMessage(t, events.TypeCheckoutPartial, events.CheckoutEvent{
		GroupToken: "group-1", OrderIDs: []string{"o-1", "o-2"}, FailedSellers: []string{"farmer-c"},
	})
	require.NoError(t, c.handle(context.Background(), msg))
	require.Len(t, store.marked, 1)
	assert.Equal(t, []domain.OrderID{"o-1", "o-2"}, store.marked[0])
}

func TestReviewConsumer_SkipsCompleted(t *testing.T) {
	store := &mockStore{}
	c := &ReviewConsumer{store: store}

	msg := eventMessage(t, events.TypeCheckoutCompleted, events.CheckoutEvent{GroupToken: "group-1", OrderIDs: []string{"o-1"}})
	require.NoError(t, c.handle(context.Background(), msg))
	assert.Empty(t, store.marked)
}

func TestReviewConsumer_BadPayload(t *testing.T) {
	c := &ReviewConsumer{store: &mockStore{}}

	msg := kafka.Message{
		Value:   []byte("{"),
		Headers: []kafka.Header{{Key: events.HeaderEventType, Value: []byte(events.TypeCheckoutPartial)}},
	}
	assert.Error(t, c.handle(context.Background(), msg))
}

type fakeReader struct {
	msgs []kafka.Message
	i    int
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if r.i >= len(r.msgs) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[r.i]
	r.i++
	return m, nil
}

func (r *fakeReader) Close() error { return nil }

type failingReader struct {
	m     sync.Mutex
	err   error
	calls int
}

func (r *failingReader) ReadMessage(context.Context) (kafka.Message, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
	return kafka.Message{}, r.err
}

func (r *failingReader) Close() error { return nil }

func (r *failingReader) callCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.calls
}

func TestReviewConsumer_Run_StopsWhenReaderClosed(t *testing.T) {
	for _, readErr := range []error{io.EOF, kafka.ErrGroupClosed} {
		t.Run(readErr.Error(), func(t *testing.T) {
			reader := &failingReader{err: readErr}
			c := &ReviewConsumer{store: &mockStore{}, reader: reader}

			done := make(chan struct{})
			go func() {
				c.Run(context.Background())
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("Run did not return after the reader was closed")
			}
			assert.Equal(t, 1, reader.callCount())
		})
	}
}

func TestReviewConsumer_Run_BacksOffOnReadErrors(t *testing.T) {
	reader := &failingReader{err: errors.New("broker unreachable")}
	c := &ReviewConsumer{
		store:      &mockStore{},
		reader:     reader,
		backoff:    20 * time.Millisecond,
		maxBackoff: 40 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	// 20ms, 40ms, 40ms... allows about six reads in 200ms
	calls := reader.callCount()
	assert.GreaterOrEqual(t, calls, 2)
	assert.LessOrEqual(t, calls, 10)
}

func TestReviewConsumer_Run(t *testing.T) {
	store := &mockStore{}
	reader := &fakeReader{msgs: []kafka.Message{
		eventMessage(t, events.TypeCheckoutCompleted, events.CheckoutEvent{GroupToken: "g-1", OrderIDs: []string{"o-1"}}),
		eventMessage(t, events.TypeCheckoutPartial, events.CheckoutEvent{GroupToken: "g-2", OrderIDs: []string{"o-2"}}),
	}}
	c := &ReviewConsumer{store: store, reader: reader}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.m.Lock()
		defer store.m.Unlock()
		return len(store.marked) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []domain.OrderID{"o-2"}, store.marked[0])
}
