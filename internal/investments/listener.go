package investments

import (
	"context"
	"log/slog"

	"github.com/nfrund/profitbridge/internal/store"
)

// ChangeListener subscribes to every create, update and delete on the
// investments table. Event payloads are ignored.
type ChangeListener struct {
	store store.Client
}

func NewChangeListener(s store.Client) *ChangeListener {
	return &ChangeListener{store: s}
}

// Subscribe opens a subscription that calls onChange for every event.
func (l *ChangeListener) Subscribe(ctx context.Context, onChange func()) (*store.Subscription, error) {
	sub, err := l.store.Watch(ctx, store.InvestmentsTable, onChange)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to subscribe to investment changes", "event", "investments_subscribe_failure", "error", err)
		return nil, err
	}
	slog.DebugContext(ctx, "Subscribed to investment changes", "subID", sub.ID)
	return sub, nil
}

// Unsubscribe releases sub. A nil handle is ignored.
func (l *ChangeListener) Unsubscribe(sub *store.Subscription) error {
	if sub == nil {
		return nil
	}
	if err := l.store.Unwatch(sub); err != nil {
		slog.Warn("Failed to release investment subscription", "subID", sub.ID, "error", err)
		return err
	}
	return nil
}
