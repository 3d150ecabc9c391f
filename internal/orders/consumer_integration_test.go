package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/events"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestReviewConsumer_EndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokerAddr, cleanupKafka := setupKafka(t)
	defer cleanupKafka()
	createTopic(t, brokerAddr, events.Topic)

	publisher := events.NewPublisher(brokerAddr)
	defer publisher.Close()

	require.NoError(t, publisher.PublishCheckoutCompleted(ctx, "buyer-1", &checkout.SubmitResult{
		GroupToken: "group-ok",
		OrderIDs:   []domain.OrderID{"o-1"},
	}))
	require.NoError(t, publisher.OnPartialCheckout(ctx, "buyer-1", &checkout.SubmitError{
		GroupToken:      "group-partial",
		Cause:           errors.New("store down"),
		CreatedOrderIDs: []domain.OrderID{"o-2", "o-3"},
	}))

	store := &mockStore{}
	c := NewReviewConsumer(store, brokerAddr)
	defer c.Close()
	go c.Run(ctx)

	require.Eventually(t, func() bool {
		store.m.Lock()
		defer store.m.Unlock()
		return len(store.marked) == 1 && len(store.marked[0]) == 2
	}, 20*time.Second, 500*time.Millisecond)
}
