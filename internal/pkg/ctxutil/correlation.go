package ctxutil

import "context"

type correlationKey struct{}

// WithCorrelationID stamps a correlation id onto ctx so audit events and
// log lines emitted downstream can be tied back to one request or run.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(Default(ctx), correlationKey{}, id)
}

// CorrelationID returns the correlation id stamped on ctx, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}
