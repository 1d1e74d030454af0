// Package live is a client for the server's /ws/data investments view.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/investments"
)

// DataPath is the data websocket endpoint.
const DataPath = "/ws/data"

// Event is one document pushed by the server: either a new set of rows or a
// notice.
type Event struct {
	Type   string              `json:"type"`
	Count  int                 `json:"count"`
	Rows   []domain.ViewRow    `json:"rows"`
	Notice *investments.Notice `json:"notice,omitempty"`
}

// IsRows reports whether the event carries a ViewState.
func (e Event) IsRows() bool { return e.Type == "rows" }

// Client is a connection to the data endpoint.
type Client struct {
	conn *websocket.Conn
}

// DataURL turns a server base URL such as http://localhost:8080 into the
// websocket URL of the data endpoint.
func DataURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("server url has no host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + DataPath
	return u.String(), nil
}

// Dial connects to the data endpoint of server.
func Dial(ctx context.Context, server string) (*Client, error) {
	target, err := DataURL(server)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Search changes the term of the server-side view.
func (c *Client) Search(term string) error {
	return c.conn.WriteJSON(map[string]string{"type": "search", "term": term})
}

// Next blocks until the server pushes a document.
func (c *Client) Next() (Event, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return ev, nil
}

// Watch calls fn for every event until ctx is done, the connection closes or
// fn returns an error. A cancelled context is not reported as an error.
func (c *Client) Watch(ctx context.Context, fn func(Event) error) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		ev, err := c.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
