package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/profitbridge/internal/pubsub"
)

// Endpoint is the kind of payload a connection consumes.
type Endpoint string

const (
	// EndpointHTML connections receive HTML fragments for htmx swaps.
	EndpointHTML Endpoint = "html"
	// EndpointData connections receive JSON documents.
	EndpointData Endpoint = "data"
)

const sendBuffer = 64

// MetaSeq is the metadata key carrying the per-connection sequence number of
// an incoming frame. The bus may reorder deliveries; consumers that care
// about order compare sequence numbers.
const MetaSeq = "seq"

// ClientEvent is the payload of the lifecycle topics.
type ClientEvent struct {
	Endpoint     Endpoint `json:"endpoint"`
	ConnectionID string   `json:"connectionID"`
	Reason       string   `json:"reason,omitempty"`
}

type client struct {
	id       string
	endpoint Endpoint
	conn     *websocket.Conn
	send     chan []byte
	seq      uint64 // owned by readPump
}

// Bridge connects websocket clients to the message bus. Frames read from a
// client are published on TopicClientMessage; messages on the ws.* delivery
// topics are written to the matching clients.
type Bridge struct {
	pub pubsub.Publisher
	sub pubsub.Subscriber

	mu      sync.RWMutex
	clients map[string]*client
}

func NewBridge(pub pubsub.Publisher, sub pubsub.Subscriber) *Bridge {
	return &Bridge{
		pub:     pub,
		sub:     sub,
		clients: make(map[string]*client),
	}
}

// Start subscribes the bridge to its delivery topics. Delivery stops when
// ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	routes := []struct {
		topic    string
		endpoint Endpoint
		direct   bool
	}{
		{TopicHTMLDirect.Name(), EndpointHTML, true},
		{TopicDataDirect.Name(), EndpointData, true},
		{TopicHTMLBroadcast.Name(), EndpointHTML, false},
		{TopicDataBroadcast.Name(), EndpointData, false},
	}

	for _, r := range routes {
		r := r
		err := b.sub.Subscribe(ctx, r.topic, func(ctx context.Context, msg pubsub.Message) error {
			if r.direct {
				return b.deliverDirect(msg.Metadata[MetaRecipientID], r.endpoint, msg.Payload)
			}
			b.broadcast(r.endpoint, msg.Payload)
			return nil
		})
		if err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "WebSocket bridge started")
	return nil
}

// Handler upgrades the request and serves the connection until it closes.
func (b *Bridge) Handler(endpoint Endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		cl := &client{
			id:       uuid.NewString(),
			endpoint: endpoint,
			conn:     conn,
			send:     make(chan []byte, sendBuffer),
		}
		b.register(cl)

		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
		defer cancel()
		go b.writePump(ctx, cl)

		b.publishEvent(ctx, TopicClientReady.Name(), ClientEvent{Endpoint: endpoint, ConnectionID: cl.id})

		reason := b.readPump(ctx, cl)

		b.unregister(cl)
		b.publishEvent(ctx, TopicClientDisconnected.Name(), ClientEvent{Endpoint: endpoint, ConnectionID: cl.id, Reason: reason})
		conn.Close(websocket.StatusNormalClosure, "")
		return nil
	}
}

// SendDirect queues payload for one connection in order. It reports false
// when the connection is unknown or closed.
func (b *Bridge) SendDirect(connectionID string, payload []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cl, ok := b.clients[connectionID]
	if !ok {
		return false
	}
	b.enqueue(cl, payload)
	return true
}

// ClientCount returns the number of open connections.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close closes every connection.
func (b *Bridge) Close() {
	b.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for _, cl := range b.clients {
		conns = append(conns, cl.conn)
	}
	b.mu.RUnlock()

	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (b *Bridge) register(cl *client) {
	b.mu.Lock()
	b.clients[cl.id] = cl
	b.mu.Unlock()
	slog.Info("WebSocket client registered", "connectionID", cl.id, "endpoint", cl.endpoint)
}

func (b *Bridge) unregister(cl *client) {
	b.mu.Lock()
	if _, ok := b.clients[cl.id]; ok {
		delete(b.clients, cl.id)
		close(cl.send)
	}
	b.mu.Unlock()
	slog.Info("WebSocket client unregistered", "connectionID", cl.id, "endpoint", cl.endpoint)
}

func (b *Bridge) deliverDirect(recipient string, endpoint Endpoint, payload []byte) error {
	if recipient == "" {
		return errors.New("direct message without " + MetaRecipientID)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	cl, ok := b.clients[recipient]
	if !ok || cl.endpoint != endpoint {
		slog.Debug("Dropping direct message for unknown connection", "connectionID", recipient, "endpoint", endpoint)
		return nil
	}
	b.enqueue(cl, payload)
	return nil
}

func (b *Bridge) broadcast(endpoint Endpoint, payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, cl := range b.clients {
		if cl.endpoint == endpoint {
			b.enqueue(cl, payload)
		}
	}
}

// enqueue must be called with b.mu held.
func (b *Bridge) enqueue(cl *client, payload []byte) {
	select {
	case cl.send <- payload:
	default:
		slog.Warn("Client send channel full, dropping message", "connectionID", cl.id)
	}
}

func (b *Bridge) readPump(ctx context.Context, cl *client) string {
	for {
		_, data, err := cl.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return "client_closed"
			}
			if ctx.Err() != nil {
				return "server_closed"
			}
			slog.Debug("WebSocket read ended", "connectionID", cl.id, "error", err)
			return "read_error"
		}

		cl.seq++
		msg := pubsub.Message{
			Topic:   TopicClientMessage.Name(),
			UserID:  cl.id,
			Payload: data,
			Metadata: map[string]string{
				"endpoint":  string(cl.endpoint),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				MetaSeq:     strconv.FormatUint(cl.seq, 10),
			},
		}
		if err := b.pub.Publish(ctx, msg); err != nil {
			slog.Error("Failed to publish incoming websocket message", "connectionID", cl.id, "error", err)
		}
	}
}

func (b *Bridge) writePump(ctx context.Context, cl *client) {
	for payload := range cl.send {
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := cl.conn.Write(writeCtx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Debug("WebSocket write failed", "connectionID", cl.id, "error", err)
			return
		}
	}
}

func (b *Bridge) publishEvent(ctx context.Context, topic string, ev ClientEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode websocket event", "topic", topic, "error", err)
		return
	}
	msg := pubsub.Message{Topic: topic, UserID: ev.ConnectionID, Payload: payload}
	if err := b.pub.Publish(ctx, msg); err != nil {
		slog.Error("Failed to publish websocket event", "topic", topic, "error", err)
	}
}
