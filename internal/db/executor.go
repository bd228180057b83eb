package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Executor runs parameterized statements against a DBTX and translates
// driver failures into the layer's error taxonomy. When the DBTX is a
// *pgxpool.Pool, each call checks a connection out for exactly the
// duration of the statement and returns it afterwards, failure
// included; on a pgx.Tx the statement runs on the transaction's
// dedicated connection.
//
// Caller data enters statements only through the args parameters.
type Executor struct {
	db DBTX
}

// NewExecutor creates an Executor bound to the given pool or
// transaction.
func NewExecutor(db DBTX) *Executor {
	return &Executor{db: db}
}

// Exec runs a statement that returns no rows and reports how many rows
// it affected. op names the operation for error messages.
func (e *Executor) Exec(ctx context.Context, op, sql string, args ...any) (int64, error) {
	tag, err := e.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, translateErr(op, err)
	}
	return tag.RowsAffected(), nil
}

// QueryRow runs a single-row query and hands the row to scan. A scan
// reporting pgx.ErrNoRows is returned unchanged so callers can map it
// onto an entity-specific not-found error; other scan failures are
// translated.
func (e *Executor) QueryRow(ctx context.Context, op, sql string, args []any, scan func(pgx.Row) error) error {
	if err := scan(e.db.QueryRow(ctx, sql, args...)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return translateScanErr(op, err)
	}
	return nil
}

// Query runs a multi-row query and feeds each row to fn. The row set
// is always closed before Query returns, whether iteration finishes,
// fn aborts it, or the connection fails mid-stream. Errors returned by
// fn propagate unchanged; fn is expected to translate its own scan
// failures.
func (e *Executor) Query(ctx context.Context, op, sql string, args []any, fn func(pgx.Rows) error) error {
	rows, err := e.db.Query(ctx, sql, args...)
	if err != nil {
		return translateErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return translateErr(op, err)
	}
	return nil
}
