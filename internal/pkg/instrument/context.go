package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID stores the request correlation id so logs and outbound
// messages emitted downstream can carry it.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the stored correlation id, or "" outside a request.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
