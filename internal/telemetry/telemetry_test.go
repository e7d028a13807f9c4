package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, true},
		{"missing endpoint", func(c *Config) { c.OTLPEndpoint = "" }, true},
		{"negative sampling ratio", func(c *Config) { c.SamplingRatio = -0.1 }, true},
		{"sampling ratio above one", func(c *Config) { c.SamplingRatio = 1.1 }, true},
		{"boundary ratios are fine", func(c *Config) { c.SamplingRatio = 1.0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ServiceName = "agentchat-gateway"
			cfg.OTLPEndpoint = "localhost:4317"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
	if _, err := NewProvider(Config{}); err == nil {
		t.Error("NewProvider should reject an empty config")
	}
}

func TestTracingMiddlewarePassthroughWhenNotStarted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceName = "agentchat-gateway"
	cfg.OTLPEndpoint = "localhost:4317"

	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	called := false
	handler := p.TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("handler was not invoked")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestShutdownBeforeStartIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceName = "agentchat-gateway"
	cfg.OTLPEndpoint = "localhost:4317"

	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() before Start should be nil, got %v", err)
	}
}
