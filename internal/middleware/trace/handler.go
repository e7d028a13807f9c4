package trace

import (
	"context"
	"log/slog"
)

// ContextHandler wraps a slog.Handler so that every record logged with a
// context carrying a trace id is tagged with a trace_id attribute. This
// gives request-scoped code ambient trace correlation without threading
// the id through call arguments.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps h with trace id tagging.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{inner: h}
}

// Enabled reports whether the wrapped handler handles records at the given level.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the trace_id attribute when ctx carries one, then delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := FromContext(ctx); ok {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler whose wrapped handler has the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler with the given group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
