package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestWatermillBridge_RoundTrip(t *testing.T) {
	bus := NewWatermillBridge(WithTracer(noop.NewTracerProvider().Tracer("test")))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	require.NoError(t, bus.Subscribe(ctx, "investments.notice", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	err := bus.Publish(ctx, Message{
		Topic:    "investments.notice",
		UserID:   "client-1",
		Payload:  []byte(`{"level":"error"}`),
		Metadata: map[string]string{"recipient_id": "client-1"},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "investments.notice", msg.Topic)
		assert.Equal(t, "client-1", msg.UserID)
		assert.Equal(t, `{"level":"error"}`, string(msg.Payload))
		assert.Equal(t, "client-1", msg.Metadata["recipient_id"])
		assert.NotContains(t, msg.Metadata, "topic")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillBridge_HandlerErrorDoesNotRedeliver(t *testing.T) {
	bus := NewWatermillBridge()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	require.NoError(t, bus.Subscribe(ctx, "t", func(context.Context, Message) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))
	require.NoError(t, bus.Publish(ctx, Message{Topic: "t"}))

	<-calls
	select {
	case <-calls:
		t.Fatal("message was redelivered")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillBridge_PublishRequiresTopic(t *testing.T) {
	bus := NewWatermillBridge()
	defer bus.Close()

	assert.Error(t, bus.Publish(context.Background(), Message{}))
}
