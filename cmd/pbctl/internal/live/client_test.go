package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
		ok     bool
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws/data", true},
		{"https://admin.example.com/", "wss://admin.example.com/ws/data", true},
		{"ws://127.0.0.1:9000", "ws://127.0.0.1:9000/ws/data", true},
		{"ftp://host", "", false},
		{"http://", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := DataURL(tt.server)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// fakeServer answers one search message with a rows document and a notice.
func fakeServer(t *testing.T, gotTerm chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DataPath, r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var msg map[string]string
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		gotTerm <- msg["term"]

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"rows","count":1,"rows":[{"id":"1","user_email":"a@x.com","amount":"1500.25","roi":"7.5","created_at":"2024-01-02T03:04:05Z"}]}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"notice","notice":{"level":"error","message":"Failed to load investments"}}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Watch(t *testing.T) {
	terms := make(chan string, 1)
	srv := fakeServer(t, terms)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Search("ALICE"))
	assert.Equal(t, "ALICE", <-terms)

	var events []Event
	require.NoError(t, c.Watch(ctx, func(ev Event) error {
		events = append(events, ev)
		return nil
	}))

	require.Len(t, events, 2)
	assert.True(t, events[0].IsRows())
	require.Len(t, events[0].Rows, 1)
	assert.Equal(t, "a@x.com", events[0].Rows[0].UserEmail)
	assert.Equal(t, "1500.25", events[0].Rows[0].Amount.String())

	assert.False(t, events[1].IsRows())
	require.NotNil(t, events[1].Notice)
	assert.Equal(t, "Failed to load investments", events[1].Notice.Message)
}

func TestClient_WatchStopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, func(Event) error { return nil }) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
