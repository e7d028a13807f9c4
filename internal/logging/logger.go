// Package logging provides the gateway's structured logger and response
// instrumentation helpers.
package logging

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/agentchat/gateway/internal/middleware/trace"
)

// NewLogger creates a slog.Logger with the specified level and format.
// Records logged with a request context automatically carry the request's
// trace id.
func NewLogger(level, format string) *slog.Logger {
	return NewLoggerTo(os.Stderr, level, format)
}

// NewLoggerTo is NewLogger writing to the given sink. Tests use it to
// capture output.
func NewLoggerTo(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "text" || format == "dev" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(trace.NewContextHandler(handler))
}

// LogResponseWriter wraps http.ResponseWriter to capture status code and response size
type LogResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

// NewLogResponseWriter creates a new LogResponseWriter
func NewLogResponseWriter(w http.ResponseWriter) *LogResponseWriter {
	return &LogResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code
func (w *LogResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the response size
func (w *LogResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

// StatusCode returns the captured status code
func (w *LogResponseWriter) StatusCode() int {
	return w.statusCode
}

// Size returns the response size
func (w *LogResponseWriter) Size() int {
	return w.size
}
