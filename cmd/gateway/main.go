package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentchat/gateway/internal/config"
	"github.com/agentchat/gateway/internal/errors"
	"github.com/agentchat/gateway/internal/logging"
	"github.com/agentchat/gateway/internal/metrics"
	"github.com/agentchat/gateway/internal/middleware/request"
	"github.com/agentchat/gateway/internal/middleware/security"
	"github.com/agentchat/gateway/internal/middleware/trace"
	"github.com/agentchat/gateway/internal/publisher"
	"github.com/agentchat/gateway/internal/telemetry"
	"github.com/agentchat/gateway/pkg/gateway"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (JSON or YAML)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (json, text, dev)")
	flag.Parse()

	// Flags beat file and environment values
	overrides := map[string]string{}
	if *logLevel != "" {
		overrides["server.log_level"] = *logLevel
	}
	if *logFormat != "" {
		overrides["server.log_format"] = *logFormat
	}

	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	healthCheck := gateway.NewHealthCheck()

	reg := prometheus.NewRegistry()
	if err := metrics.InitMetrics(reg); err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// Optional OTLP tracing
	var provider *telemetry.Provider
	if cfg.GCP.EnableTracing {
		provider, err = telemetry.NewProvider(telemetry.Config{
			ServiceName:    "agentchat-gateway",
			ServiceVersion: version,
			Environment:    os.Getenv("ENVIRONMENT"),
			OTLPEndpoint:   cfg.GCP.OTLPEndpoint,
			SamplingRatio:  cfg.GCP.TraceSamplingRatio,
			MaxExportBatch: 512,
			MaxQueueSize:   2048,
		})
		if err != nil {
			logger.Error("failed to configure telemetry", "error", err)
			os.Exit(1)
		}
		if err := provider.Start(ctx); err != nil {
			logger.Error("failed to start telemetry", "error", err)
			os.Exit(1)
		}
		defer provider.Shutdown(context.Background())
	}

	pub, err := publisher.NewPubSubPublisher(ctx, cfg.GCP.ProjectID, cfg.GCP.TopicID)
	if err != nil {
		err = errors.WithDetails(errors.Wrap(err, "failed to create publisher"), map[string]interface{}{
			"project_id": cfg.GCP.ProjectID,
			"topic_id":   cfg.GCP.TopicID,
		})
		logger.Error("publisher initialization error", "error", err)
		os.Exit(1)
	}

	// Circuit breaker in front of Pub/Sub so an outage fails fast
	breaker := publisher.NewCircuitBreaker(pub, publisher.DefaultCircuitBreakerConfig())
	breaker.SetOnStateChange(func(from, to publisher.CircuitState) {
		metrics.RecordCircuitTransition(from.String(), to.String())
		logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
	})
	defer breaker.Close()

	var dlqPub publisher.Publisher
	if cfg.GCP.EnableDLQ && cfg.GCP.DLQTopicID != "" {
		dlqPub, err = publisher.NewPubSubPublisher(ctx, cfg.GCP.ProjectID, cfg.GCP.DLQTopicID)
		if err != nil {
			logger.Error("DLQ publisher initialization error", "error", err)
			os.Exit(1)
		}
		defer dlqPub.Close()
	}

	eventHandler := gateway.NewHandler(gateway.Config{
		GatewayToken: cfg.Gateway.Token,
		HMACSecret:   cfg.Gateway.HMACSecret,
		Publisher:    breaker,
		DLQPublisher: dlqPub,
		EnableDLQ:    cfg.GCP.EnableDLQ,
	})

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthCheck.HealthHandler)
	mux.HandleFunc("/ready", healthCheck.ReadyHandler)

	securityConfig := security.SecurityConfig{
		AllowedOrigins: cfg.Security.AllowedOrigins,
		AllowedMethods: cfg.Security.AllowedMethods,
		AllowedHeaders: cfg.Security.AllowedHeaders,
		MaxAge:         3600,
	}

	// Note: the order of middleware is important
	middlewares := []func(http.Handler) http.Handler{
		security.WithSecurityHeaders(securityConfig),
		security.WithRateLimit(cfg.Security.RateLimit),     // Global rate limiting
		security.WithIPRateLimit(cfg.Security.IPRateLimit), // IP-based rate limiting
		request.WithTimeout(cfg.Server.RequestTimeout),     // Timeout last
	}

	if cfg.Security.AllowedIPsURL != "" {
		allowList, err := security.NewIPAllowList(cfg.Security.AllowedIPsURL, cfg.Security.AllowedIPsToken)
		if err != nil {
			logger.Error("failed to initialize IP allowlist", "error", err)
			os.Exit(1)
		}
		middlewares = append([]func(http.Handler) http.Handler{allowList.Middleware}, middlewares...)
	}

	if provider != nil {
		middlewares = append([]func(http.Handler) http.Handler{provider.TracingMiddleware}, middlewares...)
	}

	eventChain := chainMiddleware(eventHandler, middlewares...)
	mux.Handle(cfg.Gateway.Path, http.MaxBytesHandler(eventChain, int64(cfg.Server.MaxRequestSize)))

	// Trace wrapping goes around the whole mux so every request carries a
	// trace id and emits its outcome line
	handler := trace.WithTrace(logger)(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	healthCheck.SetReady(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down server", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	healthCheck.SetReady(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("server shutdown complete")
}

// version is stamped at build time via -ldflags
var version = "dev"

// chainMiddleware applies middleware in reverse order so they execute in
// the order they're passed
func chainMiddleware(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
