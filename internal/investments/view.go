package investments

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/store"
)

// ErrDetached is returned by Attach when the view was detached while the
// subscription was being set up.
var ErrDetached = errors.New("view detached")

// View owns the ViewState of one hosting context, such as a browser tab or a
// CLI session. Every run of the Joiner takes a generation number and only the
// newest generation may replace the state.
type View struct {
	joiner   *Joiner
	listener *ChangeListener
	sink     Sink
	notifier Notifier
	mode     config.SearchMode
	log      *slog.Logger

	mu       sync.Mutex
	attached bool
	ctx      context.Context
	cancel   context.CancelFunc
	sub      *store.Subscription
	term     string
	rows     []domain.ViewRow
	joined   []domain.ViewRow // last unfiltered join, kept for local search
	issued   uint64
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithSearchMode selects how search changes are served.
func WithSearchMode(mode config.SearchMode) ViewOption {
	return func(v *View) { v.mode = mode }
}

// WithSearchTerm sets the term in effect at attach.
func WithSearchTerm(term string) ViewOption {
	return func(v *View) { v.term = term }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) ViewOption {
	return func(v *View) { v.log = l }
}

// NewView creates a detached view.
func NewView(joiner *Joiner, listener *ChangeListener, sink Sink, notifier Notifier, opts ...ViewOption) *View {
	v := &View{
		joiner:   joiner,
		listener: listener,
		sink:     sink,
		notifier: notifier,
		mode:     config.SearchModeRefetch,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Attach starts the view: it empties the state, opens the change subscription
// and runs the initial load. A subscription failure is logged and returned,
// but the view stays attached and the initial load still runs. Re-attaching
// releases the previous subscription before a new one is opened.
func (v *View) Attach(ctx context.Context) error {
	v.mu.Lock()
	old := v.sub
	v.sub = nil
	if v.cancel != nil {
		v.cancel()
	}
	v.ctx, v.cancel = context.WithCancel(context.WithoutCancel(ctx))
	runCtx := v.ctx
	v.attached = true
	v.rows = nil
	v.joined = nil
	v.issued++
	v.mu.Unlock()

	if old != nil {
		_ = v.listener.Unsubscribe(old)
	}

	sub, subErr := v.listener.Subscribe(runCtx, v.onChange)

	v.mu.Lock()
	if !v.attached || v.ctx != runCtx {
		v.mu.Unlock()
		if sub != nil {
			_ = v.listener.Unsubscribe(sub)
		}
		return ErrDetached
	}
	v.sub = sub
	v.mu.Unlock()

	if subErr != nil {
		v.log.ErrorContext(ctx, "Live updates unavailable for investments view", "event", "investments_view_subscribe_failure", "error", subErr)
	}

	v.refresh(runCtx)
	return subErr
}

// Detach releases the subscription and discards the state. Runs still in
// flight are cancelled and their results dropped.
func (v *View) Detach() error {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.attached = false
	v.rows = nil
	v.joined = nil
	v.issued++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.mu.Unlock()

	return v.listener.Unsubscribe(sub)
}

// SetSearch changes the search term. In refetch mode this runs the Joiner
// again; in local mode the last join is re-filtered when one is available.
func (v *View) SetSearch(term string) {
	v.mu.Lock()
	v.term = term
	if !v.attached {
		v.mu.Unlock()
		return
	}
	runCtx := v.ctx
	if v.mode == config.SearchModeLocal && v.joined != nil {
		v.rows = Filter(v.joined, term)
		v.sink.Render(runCtx, v.rows)
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	v.refresh(runCtx)
}

// Refresh runs the Joiner now.
func (v *View) Refresh() {
	v.mu.Lock()
	runCtx := v.ctx
	attached := v.attached
	v.mu.Unlock()

	if attached {
		v.refresh(runCtx)
	}
}

// Snapshot returns a copy of the current ViewState.
func (v *View) Snapshot() []domain.ViewRow {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.ViewRow(nil), v.rows...)
}

// Term returns the current search term.
func (v *View) Term() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.term
}

// Attached reports whether the view is attached.
func (v *View) Attached() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attached
}

// Subscribed reports whether the view holds a change subscription.
func (v *View) Subscribed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sub != nil
}

func (v *View) onChange() {
	v.log.Debug("Investment change received, reloading view")
	v.Refresh()
}

func (v *View) refresh(ctx context.Context) {
	v.mu.Lock()
	if !v.attached {
		v.mu.Unlock()
		return
	}
	v.issued++
	gen := v.issued
	v.mu.Unlock()

	joined, err := v.joiner.Join(ctx)

	v.mu.Lock()
	if !v.attached || ctx.Err() != nil {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.mu.Unlock()
		v.log.ErrorContext(ctx, "Failed to load investments", "event", "investments_load_failure", "generation", gen, "error", err)
		v.notifier.Notify(ctx, loadFailed())
		return
	}
	if latest := v.issued; gen != latest {
		v.mu.Unlock()
		v.log.DebugContext(ctx, "Discarding stale investments result", "generation", gen, "latest", latest)
		return
	}
	v.joined = joined
	v.rows = Filter(joined, v.term)
	v.sink.Render(ctx, v.rows)
	v.mu.Unlock()
}
