package request

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name        string
		timeout     time.Duration
		sleepTime   time.Duration
		wantTimeout bool
	}{
		{
			name:        "completes within timeout",
			timeout:     100 * time.Millisecond,
			sleepTime:   50 * time.Millisecond,
			wantTimeout: false,
		},
		{
			name:        "exceeds timeout",
			timeout:     50 * time.Millisecond,
			sleepTime:   100 * time.Millisecond,
			wantTimeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := WithTimeout(tt.timeout)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(tt.sleepTime)

				select {
				case <-r.Context().Done():
					if !tt.wantTimeout {
						t.Error("request timed out unexpectedly")
					}
				default:
					if tt.wantTimeout {
						t.Error("request did not time out as expected")
					}
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
		})
	}
}

func TestWithTimeoutPreservesExistingDeadline(t *testing.T) {
	handler := WithTimeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := r.Context().Deadline()
		if !ok {
			t.Fatal("request context has no deadline")
		}
		if time.Until(deadline) > time.Minute {
			t.Errorf("deadline %v is further out than the configured timeout", deadline)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
}
