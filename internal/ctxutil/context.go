// Package ctxutil carries tracing identifiers through a context.Context.
package ctxutil

import "context"

type key int

const (
	clientIDKey key = iota
	lookupIDKey
	requestIDKey
)

func get(ctx context.Context, k key) (string, bool) {
	v, ok := ctx.Value(k).(string)
	return v, ok && v != ""
}

// WithClientID records the caller identity that per-client limits are keyed on.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientID returns the client ID, or "" when unset.
func GetClientID(ctx context.Context) string {
	v, _ := get(ctx, clientIDKey)
	return v
}

// WithLookupID tags one course lookup. A batch request carries several.
func WithLookupID(ctx context.Context, lookupID string) context.Context {
	return context.WithValue(ctx, lookupIDKey, lookupID)
}

// GetLookupID returns the lookup ID, or "" when unset.
func GetLookupID(ctx context.Context) string {
	v, _ := get(ctx, lookupIDKey)
	return v
}

// WithRequestID tags the HTTP request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID and whether a non-empty one was set.
func GetRequestID(ctx context.Context) (string, bool) {
	return get(ctx, requestIDKey)
}
