// Package db provides the PostgreSQL-backed data access layer for the
// organizational schema: departments, employees, and projects. All
// repositories accept a DBTX interface that is satisfied by both
// *pgxpool.Pool (for standalone statements) and pgx.Tx (for
// transactional execution), so the same repository code runs inside or
// outside a transaction.
//
// Statements only ever carry caller data through bound parameters;
// no query text is built by interpolating values.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
