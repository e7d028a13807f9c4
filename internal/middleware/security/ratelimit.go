package security

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentchat/gateway/internal/metrics"
)

// RateLimiter provides global rate limiting
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with specified requests per minute
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(requestsPerMinute)),
			requestsPerMinute,
		),
	}
}

// WithRateLimit applies global rate limiting to requests
func WithRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.limiter.Allow() {
				metrics.RateLimitExceeded.WithLabelValues("global").Inc()
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimiter provides per-IP rate limiting
type IPRateLimiter struct {
	ips      sync.Map // map[string]*rate.Limiter
	rateFunc func() *rate.Limiter
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		rateFunc: func() *rate.Limiter {
			return rate.NewLimiter(
				rate.Every(time.Minute/time.Duration(requestsPerMinute)),
				requestsPerMinute,
			)
		},
	}
}

// GetLimiter returns the rate limiter for a specific IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	limiter, _ := i.ips.LoadOrStore(ip, i.rateFunc())
	return limiter.(*rate.Limiter)
}

// CleanupExpired removes limiters whose burst has fully refilled, meaning
// the IP has been idle for at least a full window
func (i *IPRateLimiter) CleanupExpired() {
	i.ips.Range(func(key, value interface{}) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(limiter.Burst()) {
			i.ips.Delete(key)
		}
		return true
	})
}

// WithIPRateLimit applies per-IP rate limiting to requests
func WithIPRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	limiter := NewIPRateLimiter(requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIP(r)
			if !limiter.GetLimiter(ip).Allow() {
				metrics.RateLimitExceeded.WithLabelValues("ip").Inc()
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getIP extracts the client IP from the request
func getIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		// Take the first IP if multiple are present
		if i := strings.Index(ip, ","); i > -1 {
			ip = strings.TrimSpace(ip[:i])
		}
		return ip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
