package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/triangulator-go/internal/ctxutil"
)

// ContextHandler stamps the tracing IDs carried by a context onto each
// record before passing it on.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	requestID, _ := ctxutil.GetRequestID(ctx)
	for _, kv := range [...]struct{ key, val string }{
		{"request_id", requestID},
		{"lookup_id", ctxutil.GetLookupID(ctx)},
		{"client_id", ctxutil.GetClientID(ctx)},
	} {
		if kv.val != "" {
			r.AddAttrs(slog.String(kv.key, kv.val))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.next.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return NewContextHandler(h.next.WithGroup(name))
}
