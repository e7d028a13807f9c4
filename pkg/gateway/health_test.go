package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	hc := NewHealthCheck()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	hc.HealthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyHandler(t *testing.T) {
	hc := NewHealthCheck()

	// Not ready until SetReady(true)
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	hc.ReadyHandler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("before SetReady: got status %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	hc.SetReady(true)
	w = httptest.NewRecorder()
	hc.ReadyHandler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("after SetReady: got status %d, want %d", w.Code, http.StatusOK)
	}

	// Draining flips it back
	hc.SetReady(false)
	w = httptest.NewRecorder()
	hc.ReadyHandler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("after SetReady(false): got status %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
