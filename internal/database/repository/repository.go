// Package repository holds the SQL persistence for messages, tracked
// links and provider credentials.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when no row matches; callers translate it into
// a 404 at the API boundary.
var ErrNotFound = errors.New("record not found")

// Querier abstracts *sql.DB and *sql.Tx so a repository can run inside a
// caller-owned transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type baseRepository struct {
	db Querier
}

func newBaseRepository(db Querier) baseRepository {
	return baseRepository{db: db}
}
