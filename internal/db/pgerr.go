package db

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"orgdata/internal/types"
)

// SQLSTATE values this layer distinguishes. Anything else is surfaced
// as an internal error carrying the raw code in its details.
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
	sqlstateNotNullViolation    = "23502"
	sqlstateCheckViolation      = "23514"
	sqlstateQueryCanceled       = "57014"
	sqlstateTxAborted           = "25P02"
	sqlstateClassConnection     = "08"
	sqlstateClassResources      = "53"
	sqlstateClassOperator       = "57"
)

// translateErr maps a driver-level failure onto the error taxonomy.
// Errors that are already AppErrors pass through unchanged. Anything
// unclassifiable becomes an internal error.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if translated, ok := classify(op, err); ok {
		return translated
	}
	return types.NewAppError(types.ErrCodeInternal, op+" failed", err)
}

// translateScanErr is translateErr for failures raised while scanning
// result rows. An unclassifiable error here means the row shape or a
// column type did not line up with the destination record, which is a
// mapping error rather than an internal one.
func translateScanErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if translated, ok := classify(op, err); ok {
		return translated
	}
	return types.NewAppError(types.ErrCodeMapping, op+": result mapping failed", err)
}

// classify recognizes context errors, Postgres server errors, and
// network-level failures. The bool reports whether err matched a known
// category.
func classify(op string, err error) (*types.AppError, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return types.NewAppError(types.ErrCodeCanceled, op+" canceled", err), true
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewAppError(types.ErrCodeCanceled, op+" deadline exceeded", err), true
	case errors.Is(err, pgx.ErrNoRows):
		return types.NewAppError(types.ErrCodeNotFound, op+": record not found", err), true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPg(op, pgErr), true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return types.NewAppError(types.ErrCodeConnection, op+": store unreachable", err), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.NewAppError(types.ErrCodeConnection, op+": network failure", err), true
	}

	return nil, false
}

func classifyPg(op string, pgErr *pgconn.PgError) *types.AppError {
	switch pgErr.Code {
	case sqlstateUniqueViolation:
		return types.NewAppErrorWithDetails(types.ErrCodeConstraint,
			op+": unique constraint violated", pgErr,
			map[string]any{"constraint": pgErr.ConstraintName, "table": pgErr.TableName})
	case sqlstateForeignKeyViolation:
		return types.NewAppErrorWithDetails(types.ErrCodeConstraint,
			op+": foreign key constraint violated", pgErr,
			map[string]any{"constraint": pgErr.ConstraintName, "table": pgErr.TableName})
	case sqlstateNotNullViolation:
		return types.NewAppErrorWithDetails(types.ErrCodeConstraint,
			op+": required column missing", pgErr,
			map[string]any{"constraint": pgErr.ConstraintName, "table": pgErr.TableName, "column": pgErr.ColumnName})
	case sqlstateCheckViolation:
		return types.NewAppErrorWithDetails(types.ErrCodeConstraint,
			op+": check constraint violated", pgErr,
			map[string]any{"constraint": pgErr.ConstraintName, "table": pgErr.TableName})
	case sqlstateQueryCanceled:
		return types.NewAppError(types.ErrCodeCanceled, op+": statement canceled", pgErr)
	}

	// Whole-class checks after the specific codes above.
	if len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case sqlstateClassConnection, sqlstateClassResources, sqlstateClassOperator:
			return types.NewAppErrorWithDetails(types.ErrCodeConnection,
				op+": store rejected the connection", pgErr,
				map[string]any{"sqlstate": pgErr.Code})
		}
	}

	return types.NewAppErrorWithDetails(types.ErrCodeInternal,
		op+" failed", pgErr, map[string]any{"sqlstate": pgErr.Code})
}

// inAbortedTx reports whether err is the server refusing a statement
// because the surrounding transaction is already aborted. After a
// failed DELETE inside a transaction every further statement answers
// with this until rollback, so the dependent-count probe cannot run.
func inAbortedTx(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlstateTxAborted
}

// asForeignKeyViolation reports whether err is a Postgres foreign key
// violation and, if so, which constraint tripped. Delete paths use
// this to turn the violation into a referential conflict that names
// the dependent records.
func asForeignKeyViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateForeignKeyViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
