// Package store is the remote store client used by the investments view. It
// exposes the two collections the view joins and a change subscription on
// either of them.
package store

import (
	"context"
	"log/slog"

	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/database"
	"github.com/nfrund/profitbridge/internal/domain"
)

const (
	InvestmentsTable = "investments"
	ProfilesTable    = "profiles"
)

// Mode names which Client implementation is in use.
type Mode string

const (
	ModeLive         Mode = "live"
	ModeUnconfigured Mode = "unconfigured"
)

// Subscription is a handle on an active change subscription.
type Subscription struct {
	ID    string
	Table string
}

// Client is the remote store contract.
type Client interface {
	// ListInvestments returns every investment ordered by created_at, newest first.
	ListInvestments(ctx context.Context) ([]domain.Investment, error)
	// ListProfiles returns the profiles whose id is in ids, in no particular order.
	ListProfiles(ctx context.Context, ids []string) ([]domain.Profile, error)
	// Watch calls onChange for every create, update or delete on table.
	Watch(ctx context.Context, table string, onChange func()) (*Subscription, error)
	// Unwatch releases a subscription. Releasing an unknown or nil handle is a no-op.
	Unwatch(sub *Subscription) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	Mode() Mode
	Close(ctx context.Context) error
}

// New returns the live SurrealDB client when the database settings are
// present and a fail-fast client otherwise. The choice is made once.
func New(ctx context.Context, cfg config.Provider) (Client, error) {
	if !cfg.HasStore() {
		slog.WarnContext(ctx, "Database settings missing, store calls will fail",
			"event", "store_unconfigured", "error", domain.ErrStoreNotConfigured)
		return NewUnconfigured(), nil
	}

	conn := database.NewConnection(cfg)
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	conn.StartMonitoring()

	return NewSurrealStore(conn, database.NewSurrealLiveQueryService(conn)), nil
}
