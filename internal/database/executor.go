package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Query executes a SurrealQL statement and returns the rows of its first
// result set.
//
// Example:
//
//	rows, err := Query[Investment](ctx, db, "SELECT * FROM investments", nil)
func Query[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, query, params)
	if err != nil {
		return nil, NewDBError(err, "query execution failed").WithQuery(query).WithParams(params)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	first := (*results)[0]
	if first.Status != "" && first.Status != "OK" {
		return nil, NewDBError(ErrQueryFailed, fmt.Sprintf("statement returned status %s", first.Status)).WithQuery(query)
	}
	return first.Result, nil
}

// QueryOne returns the first row of a query, or nil when there is none.
// SELECT statements without a LIMIT are limited to one row.
func QueryOne[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) (*T, error) {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") && !hasLimitClause(query) {
		query += " LIMIT 1"
	}

	results, err := Query[T](ctx, db, query, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Execute runs a statement whose result is not needed.
func Execute(ctx context.Context, db *surrealdb.DB, query string, params map[string]any) error {
	if _, err := surrealdb.Query[any](ctx, db, query, params); err != nil {
		return NewDBError(err, "query execution failed").WithQuery(query)
	}
	return nil
}

// Fetch runs Query through a managed connection, bounded by the connection's
// read timeout unless ctx carries ContextKeyQueryTimeout.
func Fetch[T any](ctx context.Context, conn DBConnection, query string, params map[string]any) ([]T, error) {
	ctx, cancel := getTimeoutFromContext(ctx, conn.GetDBQueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var rows []T
	err := conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[T](ctx, db, query, params)
		return err
	})
	return rows, err
}

// Run executes a statement through a managed connection with the write timeout.
func Run(ctx context.Context, conn DBConnection, query string, params map[string]any) error {
	ctx, cancel := getTimeoutFromContext(ctx, conn.GetDBExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	return conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		return Execute(ctx, db, query, params)
	})
}

func hasLimitClause(query string) bool {
	return strings.Contains(" "+strings.ToUpper(query)+" ", " LIMIT ")
}
