package types

import "context"

// Context keys are unexported typed strings so values cannot collide with
// keys set by other packages.
type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores the caller's correlation id in the context. The
// transaction coordinator and query tracer pick it up so one caller-visible
// id threads through every log line an operation produces.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the correlation id from the context, or "" when
// the caller did not set one.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
