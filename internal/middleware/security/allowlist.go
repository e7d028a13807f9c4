package security

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentchat/gateway/internal/metrics"
)

// GatewayMeta is the response shape of the agentchat meta endpoint
type GatewayMeta struct {
	GatewayIPs []string `json:"gateway_ips"`
}

// IPAllowList restricts requests to the IPs the agentchat API publishes as
// its egress addresses. The list is refreshed hourly in the background.
type IPAllowList struct {
	mu           sync.RWMutex
	allowedIPs   map[string]struct{}
	metaURL      string
	refreshToken string
	lastUpdate   time.Time
}

// NewIPAllowList fetches the initial allowlist from metaURL and starts the
// background refresh
func NewIPAllowList(metaURL, refreshToken string) (*IPAllowList, error) {
	wl := &IPAllowList{
		allowedIPs:   make(map[string]struct{}),
		metaURL:      metaURL,
		refreshToken: refreshToken,
	}

	if err := wl.refreshIPs(); err != nil {
		return nil, err
	}

	go wl.periodicRefresh()

	return wl, nil
}

func (wl *IPAllowList) refreshIPs() error {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	req, err := http.NewRequest("GET", wl.metaURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if wl.refreshToken != "" {
		req.Header.Set("Authorization", "Bearer "+wl.refreshToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching meta: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var meta GatewayMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	wl.mu.Lock()
	wl.allowedIPs = make(map[string]struct{})
	for _, ip := range meta.GatewayIPs {
		wl.allowedIPs[ip] = struct{}{}
	}
	wl.lastUpdate = time.Now()
	wl.mu.Unlock()

	return nil
}

func (wl *IPAllowList) periodicRefresh() {
	ticker := time.NewTicker(1 * time.Hour)
	for range ticker.C {
		if err := wl.refreshIPs(); err != nil {
			metrics.ErrorsTotal.WithLabelValues("ip_refresh").Inc()
		}
	}
}

func (wl *IPAllowList) isAllowed(ip string) bool {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	_, exists := wl.allowedIPs[ip]
	return exists
}

// Middleware rejects requests from addresses outside the allowlist
func (wl *IPAllowList) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			ip, _, _ = net.SplitHostPort(r.RemoteAddr)
		}

		if strings.Contains(ip, ",") {
			ip = strings.TrimSpace(strings.Split(ip, ",")[0])
		}

		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !wl.isAllowed(ip) {
			metrics.ErrorsTotal.WithLabelValues("ip_forbidden").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
