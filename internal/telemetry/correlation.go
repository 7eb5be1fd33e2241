package telemetry

import "context"

type correlationKey struct{}

// CorrelationHeader carries the request correlation id in and out of the service.
const CorrelationHeader = "X-Correlation-Id"

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id stored in ctx, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
