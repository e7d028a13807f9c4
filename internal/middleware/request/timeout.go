package request

import (
	"context"
	"net/http"
	"time"
)

// WithTimeout applies a deadline to each request's context. Handlers and
// downstream clients observe the deadline through ctx.Done().
func WithTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
