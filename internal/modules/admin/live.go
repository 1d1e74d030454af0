package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/handlers"
	"github.com/nfrund/profitbridge/internal/investments"
	"github.com/nfrund/profitbridge/internal/pubsub"
	"github.com/nfrund/profitbridge/internal/rendering"
	"github.com/nfrund/profitbridge/internal/view"
	"github.com/nfrund/profitbridge/internal/websocket"
)

// Sender delivers a payload to one websocket connection, in order.
type Sender interface {
	SendDirect(connectionID string, payload []byte) bool
}

const (
	DataTypeRows   = "rows"
	DataTypeNotice = "notice"
)

// RowsMessage carries a new ViewState to data connections.
type RowsMessage struct {
	Type  string           `json:"type"`
	Count int              `json:"count"`
	Rows  []domain.ViewRow `json:"rows"`
}

// NoticeMessage carries a notice to data connections.
type NoticeMessage struct {
	Type   string             `json:"type"`
	Notice investments.Notice `json:"notice"`
}

// clientMessage accepts both {"type":"search","term":"..."} and the form
// values htmx ws-send produces ({"search":"..."}).
type clientMessage struct {
	Type   string  `json:"type"`
	Term   *string `json:"term"`
	Search *string `json:"search"`
}

func (m clientMessage) searchTerm() (string, bool) {
	switch {
	case m.Type == "search" && m.Term != nil:
		return *m.Term, true
	case m.Search != nil:
		return *m.Search, true
	}
	return "", false
}

type liveSession struct {
	id       string
	endpoint websocket.Endpoint
	view     *investments.View
	term     string
	seq      uint64
	ready    bool
	closed   bool
	closedAt time.Time
	seenAt   time.Time
	wake     chan struct{}
	done     chan struct{}
	stop     sync.Once
}

func newSession(id string) *liveSession {
	return &liveSession{
		id:   id,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// LiveViews hosts one investments.View per websocket connection. A view is
// attached when the connection becomes ready and detached when it closes.
type LiveViews struct {
	joiner   *investments.Joiner
	listener *investments.ChangeListener
	renderer rendering.Renderer
	sender   Sender
	mode     config.SearchMode
	validate func(any) error
	log      *slog.Logger

	now      func() time.Time

	mu       sync.Mutex
	ctx      context.Context
	sessions map[string]*liveSession
}

// tombstoneTTL is how long a closed connection id is remembered so that
// lifecycle events delivered late cannot revive it.
const tombstoneTTL = time.Minute

// NewLiveViews creates the host. Start must be called before connections
// are served.
func NewLiveViews(joiner *investments.Joiner, listener *investments.ChangeListener, renderer rendering.Renderer, sender Sender, mode config.SearchMode) *LiveViews {
	return &LiveViews{
		joiner:   joiner,
		listener: listener,
		renderer: renderer,
		sender:   sender,
		mode:     mode,
		validate: handlers.NewValidator().Validate,
		log:      slog.Default().With("module", "admin"),
		now:      time.Now,
		ctx:      context.Background(),
		sessions: make(map[string]*liveSession),
	}
}

// Start subscribes to the websocket lifecycle topics.
func (lv *LiveViews) Start(ctx context.Context, sub pubsub.Subscriber) error {
	lv.mu.Lock()
	lv.ctx = ctx
	lv.mu.Unlock()

	routes := []struct {
		topic   string
		handler pubsub.Handler
	}{
		{websocket.TopicClientReady.Name(), lv.handleReady},
		{websocket.TopicClientMessage.Name(), lv.handleMessage},
		{websocket.TopicClientDisconnected.Name(), lv.handleDisconnected},
	}
	for _, r := range routes {
		if err := sub.Subscribe(ctx, r.topic, r.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", r.topic, err)
		}
	}
	lv.log.InfoContext(ctx, "Live investment views started", "search_mode", lv.mode)
	return nil
}

// Count returns the number of attached views.
func (lv *LiveViews) Count() int {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	n := 0
	for _, s := range lv.sessions {
		if s.view != nil && !s.closed {
			n++
		}
	}
	return n
}

// Shutdown detaches every view.
func (lv *LiveViews) Shutdown() {
	lv.mu.Lock()
	sessions := lv.sessions
	lv.sessions = make(map[string]*liveSession)
	lv.mu.Unlock()

	for _, s := range sessions {
		lv.release(s)
	}
	lv.log.Info("Live investment views stopped", "views", len(sessions))
}

func (lv *LiveViews) handleReady(_ context.Context, msg pubsub.Message) error {
	var ev websocket.ClientEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decoding ready event: %w", err)
	}

	lv.mu.Lock()
	s := lv.lookup(ev.ConnectionID)
	s.ready = true
	if s.closed {
		lv.mu.Unlock()
		return nil
	}
	s.endpoint = ev.Endpoint
	s.view = investments.NewView(lv.joiner, lv.listener, lv.sink(s), lv.notifier(s),
		investments.WithSearchMode(lv.mode),
		investments.WithSearchTerm(s.term),
		investments.WithLogger(lv.log.With("connectionID", s.id)),
	)
	ctx := lv.ctx
	lv.mu.Unlock()

	go lv.serve(ctx, s)
	return nil
}

func (lv *LiveViews) handleMessage(_ context.Context, msg pubsub.Message) error {
	var cm clientMessage
	if err := json.Unmarshal(msg.Payload, &cm); err != nil {
		lv.log.Debug("Ignoring malformed client message", "connectionID", msg.UserID, "error", err)
		return nil
	}
	term, ok := cm.searchTerm()
	if !ok {
		return nil
	}
	req := handlers.SearchRequest{Search: term}
	if err := lv.validate(req); err != nil {
		lv.log.Warn("Rejected search term", "connectionID", msg.UserID, "error", err)
		return nil
	}
	seq, _ := strconv.ParseUint(msg.Metadata[websocket.MetaSeq], 10, 64)

	lv.mu.Lock()
	s := lv.lookup(msg.UserID)
	if s.closed || (seq != 0 && seq <= s.seq) {
		lv.mu.Unlock()
		return nil
	}
	s.seq = seq
	s.term = req.Search
	lv.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (lv *LiveViews) handleDisconnected(_ context.Context, msg pubsub.Message) error {
	var ev websocket.ClientEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decoding disconnect event: %w", err)
	}

	lv.mu.Lock()
	s := lv.lookup(ev.ConnectionID)
	now := lv.now()
	if !s.closed {
		s.closed = true
		s.closedAt = now
	}
	lv.pruneTombstones(now)
	lv.mu.Unlock()

	lv.release(s)
	return nil
}

// pruneTombstones forgets connections closed longer than tombstoneTTL ago,
// and ids that never became ready within it. Must be called with lv.mu held.
func (lv *LiveViews) pruneTombstones(now time.Time) {
	for id, s := range lv.sessions {
		switch {
		case s.closed && now.Sub(s.closedAt) > tombstoneTTL:
			delete(lv.sessions, id)
		case !s.closed && !s.ready && now.Sub(s.seenAt) > tombstoneTTL:
			delete(lv.sessions, id)
		}
	}
}

// lookup must be called with lv.mu held.
func (lv *LiveViews) lookup(id string) *liveSession {
	s, ok := lv.sessions[id]
	if !ok {
		now := lv.now()
		lv.pruneTombstones(now)
		s = newSession(id)
		s.seenAt = now
		lv.sessions[id] = s
	}
	return s
}

func (lv *LiveViews) release(s *liveSession) {
	s.stop.Do(func() { close(s.done) })

	lv.mu.Lock()
	v := s.view
	lv.mu.Unlock()
	if v != nil {
		if err := v.Detach(); err != nil {
			lv.log.Warn("Failed to detach live view", "connectionID", s.id, "error", err)
		}
	}
}

// serve attaches the view and applies search changes one at a time. Bursts
// of changes collapse into the latest term.
func (lv *LiveViews) serve(ctx context.Context, s *liveSession) {
	lv.mu.Lock()
	v := s.view
	lv.mu.Unlock()

	// release may run before Attach; detaching on exit covers that order.
	defer func() { _ = v.Detach() }()

	if err := v.Attach(ctx); err != nil {
		if errors.Is(err, investments.ErrDetached) {
			return
		}
		lv.log.Warn("Live view attached without change subscription", "connectionID", s.id, "error", err)
	}

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-s.wake:
			lv.mu.Lock()
			term := s.term
			lv.mu.Unlock()
			if term != v.Term() {
				v.SetSearch(term)
			}
		}
	}
}

func (lv *LiveViews) sink(s *liveSession) investments.Sink {
	return investments.SinkFunc(func(ctx context.Context, rows []domain.ViewRow) {
		var (
			payload []byte
			err     error
		)
		if s.endpoint == websocket.EndpointHTML {
			payload, err = lv.renderer.RenderComponent(ctx, view.RowsFragment(rows))
		} else {
			payload, err = json.Marshal(RowsMessage{Type: DataTypeRows, Count: len(rows), Rows: nonNil(rows)})
		}
		lv.push(ctx, s, payload, err)
	})
}

func (lv *LiveViews) notifier(s *liveSession) investments.Notifier {
	return investments.NotifierFunc(func(ctx context.Context, n investments.Notice) {
		var (
			payload []byte
			err     error
		)
		if s.endpoint == websocket.EndpointHTML {
			payload, err = lv.renderer.RenderComponent(ctx, view.NoticeFragment(ctx, n))
		} else {
			payload, err = json.Marshal(NoticeMessage{Type: DataTypeNotice, Notice: n})
		}
		lv.push(ctx, s, payload, err)
	})
}

func (lv *LiveViews) push(ctx context.Context, s *liveSession, payload []byte, err error) {
	if err != nil {
		lv.log.ErrorContext(ctx, "Failed to encode live view update", "connectionID", s.id, "error", err)
		return
	}
	if !lv.sender.SendDirect(s.id, payload) {
		lv.log.DebugContext(ctx, "Live view update dropped, connection gone", "connectionID", s.id)
	}
}

func nonNil(rows []domain.ViewRow) []domain.ViewRow {
	if rows == nil {
		return []domain.ViewRow{}
	}
	return rows
}
