package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentchat/gateway/internal/middleware/trace"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		emit     string
		message  string
		expected bool
	}{
		{"debug shows at debug level", "debug", "debug", "debug message", true},
		{"debug hidden at info level", "info", "debug", "debug message", false},
		{"info shows at info level", "info", "info", "info message", true},
		{"info hidden at error level", "error", "info", "info message", false},
		{"error shows at error level", "error", "error", "error message", true},
		{"unknown level defaults to info", "bogus", "debug", "debug message", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerTo(&buf, tt.level, "json")

			switch tt.emit {
			case "debug":
				logger.Debug(tt.message)
			case "info":
				logger.Info(tt.message)
			case "error":
				logger.Error(tt.message)
			}

			got := strings.Contains(buf.String(), tt.message)
			if got != tt.expected {
				t.Errorf("output contains %q = %v, want %v (output: %s)", tt.message, got, tt.expected, buf.String())
			}
		})
	}
}

func TestLogFormats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains string
	}{
		{"json format", "json", `"msg":"hello"`},
		{"text format", "text", "msg=hello"},
		{"dev falls back to text", "dev", "msg=hello"},
		{"unknown falls back to json", "bogus", `"msg":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerTo(&buf, "info", tt.format)
			logger.Info("hello")

			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.contains)
			}
		})
	}
}

func TestLoggerCarriesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info", "json")

	ctx := trace.WithTraceID(context.Background(), "log-trace-1")
	logger.InfoContext(ctx, "tagged")

	if !strings.Contains(buf.String(), `"trace_id":"log-trace-1"`) {
		t.Errorf("log output missing trace_id: %s", buf.String())
	}
}

func TestLogResponseWriter(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w *LogResponseWriter)
		wantStatus int
		wantSize   int
	}{
		{
			name:       "defaults to 200",
			write:      func(w *LogResponseWriter) { _, _ = w.Write([]byte("ok")) },
			wantStatus: http.StatusOK,
			wantSize:   2,
		},
		{
			name: "captures explicit status",
			write: func(w *LogResponseWriter) {
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("short"))
			},
			wantStatus: http.StatusTeapot,
			wantSize:   5,
		},
		{
			name: "accumulates size across writes",
			write: func(w *LogResponseWriter) {
				_, _ = w.Write([]byte("one"))
				_, _ = w.Write([]byte("two"))
			},
			wantStatus: http.StatusOK,
			wantSize:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			w := NewLogResponseWriter(rec)
			tt.write(w)

			if w.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", w.StatusCode(), tt.wantStatus)
			}
			if w.Size() != tt.wantSize {
				t.Errorf("Size() = %d, want %d", w.Size(), tt.wantSize)
			}
		})
	}
}
