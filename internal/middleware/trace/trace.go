package trace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const (
	// B3TraceIDHeader is the inbound distributed-tracing header. When an
	// upstream caller supplies it, its value is reused verbatim as the
	// request's trace id.
	B3TraceIDHeader = "x-b3-traceid"
	// ResponseHeader carries the trace id back to the caller on every response.
	ResponseHeader = "X-Trace-ID"
)

// systemError is the fixed body returned when a downstream handler panics.
// The content is a sentinel, never derived from the failure, so no internal
// detail leaks over the wire.
type systemError struct {
	Code     int    `json:"code"`
	ErrorMsg string `json:"error_msg"`
}

var systemErrorBody = systemError{Code: -1, ErrorMsg: "10500: system error, please retry"}

// WithTrace returns the trace middleware. For each request it resolves a
// trace id, binds it to the request context (and, through ContextHandler,
// to all logs emitted while handling the request), recovers any panic from
// downstream handlers, and emits a single outcome log line with the final
// status and latency.
func WithTrace(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(B3TraceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			start := time.Now()

			ctx := WithTraceID(r.Context(), traceID)
			r = r.WithContext(ctx)

			// Set before the handler runs: headers cannot be changed once
			// the response is committed.
			w.Header().Set(ResponseHeader, traceID)

			rw := newResponseWriter(w)

			func() {
				defer func() {
					if rec := recover(); rec != nil {
						logger.LogAttrs(ctx, slog.LevelError, "unhandled panic in handler",
							slog.Any("panic", rec),
							slog.String("stack", string(debug.Stack())),
						)
						writeSystemError(rw)
					}
				}()
				next.ServeHTTP(rw, r)
			}()

			elapsed := float64(time.Since(start)) / float64(time.Millisecond)
			var attrs []slog.Attr
			if ctx.Err() != nil {
				// Client disconnect or deadline; the outcome line is still
				// emitted so every request has exactly one.
				attrs = append(attrs, slog.Bool("canceled", true))
			}
			logger.LogAttrs(ctx, slog.LevelInfo,
				fmt.Sprintf("%s %s %d time_cost=%.3fms", r.Method, r.URL.Path, rw.Status(), elapsed),
				attrs...,
			)
		})
	}
}

// writeSystemError replaces the response with the sentinel 500 body. If the
// handler already committed the response there is nothing left to replace;
// the failure has been logged and the partial response stands.
func writeSystemError(w *responseWriter) {
	if w.Written() {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(systemErrorBody)
}
