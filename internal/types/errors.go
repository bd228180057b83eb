package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a typed string for categorizing data-layer errors.
type ErrorCode string

// Complete error code constants.
// All repositories MUST use these constants instead of hardcoded strings.
const (
	// ErrCodeConnection indicates a transport or authentication failure
	// reaching the store. Retryable per the configured policy.
	ErrCodeConnection ErrorCode = "connection_error"

	// ErrCodePoolExhausted indicates all pooled connections were busy past
	// the acquire timeout. The caller should back off before trying again.
	ErrCodePoolExhausted ErrorCode = "pool_exhausted"

	// ErrCodeValidation indicates a client-side invariant violation caught
	// before the statement reached the store. The caller must fix the input.
	ErrCodeValidation ErrorCode = "validation_error"

	// ErrCodeConstraint indicates the store rejected a write: uniqueness,
	// check, not-null, or a foreign-key reference to a missing row.
	ErrCodeConstraint ErrorCode = "constraint_violation"

	// ErrCodeReferential indicates a delete was blocked because dependent
	// rows still reference the target. The caller must resolve them first.
	ErrCodeReferential ErrorCode = "referential_conflict"

	// ErrCodeMapping indicates a column/type mismatch between the store and
	// the record structs. Signals schema drift; fatal to the operation.
	ErrCodeMapping ErrorCode = "mapping_error"

	// ErrCodeNotFound indicates the identifier does not exist. Expected and
	// common; not an internal failure.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeTxTimeout indicates the transaction exceeded its configured
	// maximum duration and was rolled back.
	ErrCodeTxTimeout ErrorCode = "transaction_timeout"

	// ErrCodeCanceled indicates the caller canceled the context while the
	// operation was in flight.
	ErrCodeCanceled ErrorCode = "operation_canceled"

	// ErrCodeInternal is the fallback for failures that fit no other
	// category. Seeing it in production means a translation gap.
	ErrCodeInternal ErrorCode = "internal_error"
)

// Retryable reports whether an operation failing with this code may be
// retried without changing the input. Only connection failures qualify;
// pool exhaustion asks the caller to back off rather than hammer the pool,
// and everything else requires caller action.
func (c ErrorCode) Retryable() bool {
	return c == ErrCodeConnection
}

// AppError is the standard error type returned across the repository
// boundary. Every failure is expressed as an AppError so callers receive a
// tagged outcome they can branch on without string matching.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
// The chain reaches down to the driver error (e.g. *pgconn.PgError) when
// one exists.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged
// in. Useful for adding context without mutating a shared error value.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error. This is the standard constructor.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details
// (violated constraint, offending field, dependent entity and count).
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode from an error chain. Returns ErrCodeInternal
// for non-nil errors that carry no AppError, and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
