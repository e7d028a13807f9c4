package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithSecurityHeaders(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		origin      string
		config      SecurityConfig
		wantStatus  int
		wantCORS    bool
		wantHandler bool
	}{
		{
			name:        "plain request gets security headers",
			method:      http.MethodPost,
			config:      DefaultConfig(),
			wantStatus:  http.StatusOK,
			wantCORS:    false,
			wantHandler: true,
		},
		{
			name:        "allowed origin gets CORS headers",
			method:      http.MethodPost,
			origin:      "https://app.agentchat.dev",
			config:      DefaultConfig(),
			wantStatus:  http.StatusOK,
			wantCORS:    true,
			wantHandler: true,
		},
		{
			name:   "preflight short-circuits",
			method: http.MethodOptions,
			origin: "https://app.agentchat.dev",
			config: DefaultConfig(),
			// OPTIONS is answered by the middleware itself
			wantStatus:  http.StatusOK,
			wantCORS:    true,
			wantHandler: false,
		},
		{
			name:   "disallowed origin gets no CORS headers",
			method: http.MethodPost,
			origin: "https://evil.example.com",
			config: SecurityConfig{
				AllowedOrigins: []string{"https://app.agentchat.dev"},
				AllowedMethods: []string{"POST"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         3600,
			},
			wantStatus:  http.StatusOK,
			wantCORS:    false,
			wantHandler: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := WithSecurityHeaders(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/events", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if handlerCalled != tt.wantHandler {
				t.Errorf("handler called = %v, want %v", handlerCalled, tt.wantHandler)
			}

			if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
			}
			if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
				t.Errorf("X-Frame-Options = %q, want DENY", got)
			}

			gotCORS := w.Header().Get("Access-Control-Allow-Origin") != ""
			if gotCORS != tt.wantCORS {
				t.Errorf("CORS headers present = %v, want %v", gotCORS, tt.wantCORS)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if len(config.AllowedOrigins) != 1 || config.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", config.AllowedOrigins)
	}
	if config.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", config.MaxAge)
	}

	found := false
	for _, h := range config.AllowedHeaders {
		if strings.EqualFold(h, "X-Agentchat-Token") {
			found = true
		}
	}
	if !found {
		t.Error("AllowedHeaders should include the gateway token header")
	}
}
