package database

import (
	"context"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// DBConnection is a managed SurrealDB connection. Callers run driver
// operations through WithConnection so that a dropped socket is re-dialed
// transparently.
type DBConnection interface {
	Connect(ctx context.Context) error
	WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error
	Close(ctx context.Context) error
	IsHealthy() bool
	StartMonitoring()
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
}
