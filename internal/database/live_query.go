package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// LiveQueryAction is the kind of change carried by a live query notification.
type LiveQueryAction string

const (
	ActionCreate LiveQueryAction = "CREATE"
	ActionUpdate LiveQueryAction = "UPDATE"
	ActionDelete LiveQueryAction = "DELETE"
	// ActionClose is delivered once when the server side of a live query goes
	// away without the subscriber asking for it.
	ActionClose LiveQueryAction = "CLOSE"
)

// LiveQueryHandler is called for every notification of a subscription.
type LiveQueryHandler func(ctx context.Context, action LiveQueryAction, data any)

// LiveQueryFilter narrows a table subscription.
type LiveQueryFilter struct {
	Where  string
	Params map[string]any
	Fields []string
}

// Subscription identifies an active live query.
type Subscription struct {
	ID    string
	Table string
}

// LiveQueryService provides change subscriptions over SurrealDB live queries.
type LiveQueryService interface {
	Subscribe(ctx context.Context, table string, filter *LiveQueryFilter, handler LiveQueryHandler) (*Subscription, error)
	Unsubscribe(subID string) error
	Close() error
}

var (
	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// ErrInvalidTable is returned when a table name is not a plain identifier.
	ErrInvalidTable = errors.New("invalid table name")
)

// SurrealLiveQueryService implements LiveQueryService on a managed connection.
type SurrealLiveQueryService struct {
	db            DBConnection
	subscriptions sync.Map // map[string]*subscriptionState
}

type subscriptionState struct {
	id          string
	table       string
	handler     LiveQueryHandler
	cancel      context.CancelFunc
	liveQueryID string
}

var _ LiveQueryService = (*SurrealLiveQueryService)(nil)

// NewSurrealLiveQueryService creates a live query service on db.
func NewSurrealLiveQueryService(db DBConnection) *SurrealLiveQueryService {
	return &SurrealLiveQueryService{db: db}
}

// Subscribe starts a LIVE SELECT on table and calls handler for every change.
func (s *SurrealLiveQueryService) Subscribe(ctx context.Context, table string, filter *LiveQueryFilter, handler LiveQueryHandler) (*Subscription, error) {
	if handler == nil {
		return nil, NewDBError(ErrInvalidInput, "handler cannot be nil")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	query, params := buildLiveQuery(table, filter)

	subID := uuid.New().String()
	subCtx, cancel := context.WithCancel(context.Background())
	state := &subscriptionState{
		id:      subID,
		table:   table,
		handler: handler,
		cancel:  cancel,
	}

	err := s.db.WithConnection(ctx, func(db *surrealdb.DB) error {
		liveID, err := startLiveQuery(ctx, db, query, params)
		if err != nil {
			return err
		}
		state.liveQueryID = liveID

		notifications, err := db.LiveNotifications(liveID)
		if err != nil {
			killLiveQuery(db, liveID)
			return fmt.Errorf("failed to get notification channel: %w", err)
		}

		s.subscriptions.Store(subID, state)
		go s.listen(subCtx, state, notifications)
		go func() {
			<-subCtx.Done()
			if err := db.CloseLiveNotifications(liveID); err != nil {
				slog.Debug("Failed to close live notifications", "error", err, "liveQueryID", liveID)
			}
			killLiveQuery(db, liveID)
		}()
		return nil
	})
	if err != nil {
		cancel()
		return nil, WrapError(err, "failed to start live query").WithQuery(query)
	}

	slog.Info("Live query subscription created", "subID", subID, "table", table, "liveQueryID", state.liveQueryID)
	return &Subscription{ID: subID, Table: table}, nil
}

// Unsubscribe stops a subscription. Unknown IDs are ignored.
func (s *SurrealLiveQueryService) Unsubscribe(subID string) error {
	v, ok := s.subscriptions.LoadAndDelete(subID)
	if !ok {
		return nil
	}
	v.(*subscriptionState).cancel()
	slog.Info("Live query subscription removed", "subID", subID)
	return nil
}

// Close stops every subscription.
func (s *SurrealLiveQueryService) Close() error {
	s.subscriptions.Range(func(key, _ any) bool {
		_ = s.Unsubscribe(key.(string))
		return true
	})
	return nil
}

// Count returns the number of active subscriptions.
func (s *SurrealLiveQueryService) Count() int {
	n := 0
	s.subscriptions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *SurrealLiveQueryService) listen(ctx context.Context, state *subscriptionState, notifications <-chan connection.Notification) {
	log := slog.With("subID", state.id, "table", state.table)
	log.Debug("Live query listener started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Live query listener stopped")
			return

		case n, ok := <-notifications:
			if !ok {
				if _, owned := s.subscriptions.LoadAndDelete(state.id); owned {
					log.Warn("Live query notification channel closed unexpectedly")
					state.cancel()
					s.dispatch(ctx, state, ActionClose, nil)
				}
				return
			}

			action, known := mapAction(n.Action)
			if !known {
				log.Warn("Unknown live query action", "action", n.Action)
				continue
			}
			log.Debug("Live query notification received", "action", action)
			go s.dispatch(ctx, state, action, n.Result)
		}
	}
}

func (s *SurrealLiveQueryService) dispatch(ctx context.Context, state *subscriptionState, action LiveQueryAction, data any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in live query handler", "subID", state.id, "panic", r)
		}
	}()
	state.handler(ctx, action, data)
}

func mapAction(a connection.Action) (LiveQueryAction, bool) {
	switch a {
	case connection.CreateAction:
		return ActionCreate, true
	case connection.UpdateAction:
		return ActionUpdate, true
	case connection.DeleteAction:
		return ActionDelete, true
	}
	return "", false
}

func buildLiveQuery(table string, filter *LiveQueryFilter) (string, map[string]any) {
	fields := "*"
	params := map[string]any{}
	if filter != nil {
		if len(filter.Fields) > 0 {
			fields = strings.Join(filter.Fields, ", ")
		}
		for k, v := range filter.Params {
			params[k] = v
		}
	}

	query := fmt.Sprintf("LIVE SELECT %s FROM %s", fields, table)
	if filter != nil && filter.Where != "" {
		query += " WHERE " + filter.Where
	}
	return query, params
}

// startLiveQuery executes a LIVE SELECT and returns the live query UUID.
func startLiveQuery(ctx context.Context, db *surrealdb.DB, query string, params map[string]any) (string, error) {
	results, err := surrealdb.Query[any](ctx, db, query, params)
	if err != nil {
		return "", fmt.Errorf("failed to execute live query: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return "", errors.New("live query returned no results")
	}

	result := (*results)[0]
	if result.Status != "OK" {
		return "", fmt.Errorf("live query failed with status: %s", result.Status)
	}

	var id string
	switch v := result.Result.(type) {
	case string:
		id = v
	case models.UUID:
		id = v.String()
	case map[string]any:
		switch inner := v["id"].(type) {
		case string:
			id = inner
		case models.UUID:
			id = inner.String()
		}
	}
	if id == "" {
		return "", fmt.Errorf("unexpected live query result: %T %+v", result.Result, result.Result)
	}
	return id, nil
}

func killLiveQuery(db *surrealdb.DB, liveID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := surrealdb.Query[any](ctx, db, "KILL $liveQueryID", map[string]any{"liveQueryID": liveID}); err != nil {
		slog.Warn("Failed to kill live query", "error", err, "liveQueryID", liveID)
		return
	}
	slog.Debug("Killed live query", "liveQueryID", liveID)
}
