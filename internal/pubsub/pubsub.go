package pubsub

import (
	"context"
)

// Message is the envelope passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "investments.view.updated").
	Topic string
	// UserID identifies the client or operator the message concerns.
	UserID string
	// Payload contains the raw message data.
	Payload []byte
	// Metadata carries routing hints such as the recipient client id.
	Metadata map[string]string
}

// Handler processes one received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus. Subscribe returns once the
// subscription is active; delivery stops when ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
