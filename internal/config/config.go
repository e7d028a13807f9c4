// Package config provides a standardized way to load, validate, and access
// gateway configuration. It supports defaults, JSON/YAML files, and
// environment variable overrides, applied in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agentchat/gateway/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all gateway configuration
type Config struct {
	GCP      GCPConfig      `json:"gcp" yaml:"gcp"`
	Gateway  GatewayConfig  `json:"gateway" yaml:"gateway"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Security SecurityConfig `json:"security" yaml:"security"`
}

// GCPConfig holds Google Cloud Platform related configuration
type GCPConfig struct {
	ProjectID          string  `json:"project_id" yaml:"project_id"`
	TopicID            string  `json:"topic_id" yaml:"topic_id"`
	CredentialsFile    string  `json:"credentials_file" yaml:"credentials_file"`
	EnableTracing      bool    `json:"enable_tracing" yaml:"enable_tracing"`
	OTLPEndpoint       string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	TraceSamplingRatio float64 `json:"trace_sampling_ratio" yaml:"trace_sampling_ratio"`
	// Dead letter queue configuration
	EnableDLQ  bool   `json:"enable_dlq" yaml:"enable_dlq"`
	DLQTopicID string `json:"dlq_topic_id" yaml:"dlq_topic_id"`
}

// GatewayConfig holds chat event ingestion related configuration
type GatewayConfig struct {
	Token      string `json:"token" yaml:"token"`
	HMACSecret string `json:"hmac_secret" yaml:"hmac_secret"`
	Path       string `json:"path" yaml:"path"`
}

// ServerConfig holds HTTP server related configuration
type ServerConfig struct {
	Port           int           `json:"port" yaml:"port"`
	LogLevel       string        `json:"log_level" yaml:"log_level"`
	LogFormat      string        `json:"log_format" yaml:"log_format"`
	MaxRequestSize int           `json:"max_request_size" yaml:"max_request_size"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout,omitempty"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout,omitempty"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout,omitempty"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout,omitempty"`
}

// SecurityConfig holds security related configuration
type SecurityConfig struct {
	RateLimit       int      `json:"rate_limit" yaml:"rate_limit"`
	IPRateLimit     int      `json:"ip_rate_limit" yaml:"ip_rate_limit"`
	AllowedOrigins  []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods  []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders  []string `json:"allowed_headers" yaml:"allowed_headers"`
	AllowedIPsURL   string   `json:"allowed_ips_url" yaml:"allowed_ips_url"`
	AllowedIPsToken string   `json:"allowed_ips_token" yaml:"allowed_ips_token"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		GCP: GCPConfig{
			CredentialsFile:    "credentials.json",
			EnableTracing:      false,
			OTLPEndpoint:       "localhost:4317",
			TraceSamplingRatio: 0.1,
		},
		Gateway: GatewayConfig{
			Path: "/events",
		},
		Server: ServerConfig{
			Port:           8080,
			LogLevel:       "info",
			LogFormat:      "json",
			MaxRequestSize: 1 * 1024 * 1024, // 1 MB
			RequestTimeout: 30 * time.Second,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    120 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit:      120, // requests per minute
			IPRateLimit:    60,  // requests per minute per IP
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Content-Type",
				"Content-Length",
				"Accept-Encoding",
				"Authorization",
				"X-Agentchat-Token",
				"X-Agentchat-Signature",
				"x-b3-traceid",
			},
		},
	}
}

// Load builds the configuration: defaults, then the optional file, then
// environment variables, then explicit overrides. The result is validated.
func Load(path string, overrides map[string]string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrap(err, "parsing YAML config")
		}
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return errors.Wrap(err, "parsing JSON config")
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unsupported config file extension: %s", filepath.Ext(path)))
	}

	return nil
}

func (c *Config) applyEnv() {
	setString(&c.GCP.ProjectID, "GCP_PROJECT_ID")
	setString(&c.GCP.TopicID, "GCP_TOPIC_ID")
	setString(&c.GCP.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setBool(&c.GCP.EnableTracing, "ENABLE_TRACING")
	setString(&c.GCP.OTLPEndpoint, "OTLP_ENDPOINT")
	setBool(&c.GCP.EnableDLQ, "ENABLE_DLQ")
	setString(&c.GCP.DLQTopicID, "DLQ_TOPIC_ID")

	setString(&c.Gateway.Token, "GATEWAY_TOKEN")
	setString(&c.Gateway.HMACSecret, "GATEWAY_HMAC_SECRET")
	setString(&c.Gateway.Path, "GATEWAY_PATH")

	setInt(&c.Server.Port, "PORT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Server.LogFormat, "LOG_FORMAT")
	setDuration(&c.Server.RequestTimeout, "REQUEST_TIMEOUT")

	setInt(&c.Security.RateLimit, "RATE_LIMIT")
	setInt(&c.Security.IPRateLimit, "IP_RATE_LIMIT")
	setString(&c.Security.AllowedIPsURL, "ALLOWED_IPS_URL")
	setString(&c.Security.AllowedIPsToken, "ALLOWED_IPS_TOKEN")
}

func (c *Config) applyOverrides(overrides map[string]string) {
	for key, value := range overrides {
		switch key {
		case "gcp.project_id":
			c.GCP.ProjectID = value
		case "gcp.topic_id":
			c.GCP.TopicID = value
		case "gateway.token":
			c.Gateway.Token = value
		case "gateway.path":
			c.Gateway.Path = value
		case "server.port":
			if port, err := strconv.Atoi(value); err == nil {
				c.Server.Port = port
			}
		case "server.log_level":
			c.Server.LogLevel = value
		case "server.log_format":
			c.Server.LogFormat = value
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GCP.ProjectID == "" {
		return errors.NewValidationError("GCP.ProjectID cannot be empty")
	}
	if c.GCP.TopicID == "" {
		return errors.NewValidationError("GCP.TopicID cannot be empty")
	}
	if c.GCP.EnableDLQ && c.GCP.DLQTopicID == "" {
		return errors.NewValidationError("GCP.DLQTopicID is required when DLQ is enabled")
	}

	// Either a shared token or an HMAC secret must authenticate events
	if c.Gateway.Token == "" && c.Gateway.HMACSecret == "" {
		return errors.NewValidationError("Gateway.Token or Gateway.HMACSecret must be provided")
	}
	if !strings.HasPrefix(c.Gateway.Path, "/") {
		return errors.NewValidationError("Gateway.Path must start with /")
	}

	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		return errors.NewValidationError("Server.Port must be between 1024 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Server.LogLevel)] {
		return errors.NewValidationError("Server.LogLevel must be one of: debug, info, warn, error")
	}

	if c.Security.RateLimit <= 0 || c.Security.IPRateLimit <= 0 {
		return errors.NewValidationError("Security rate limits must be positive")
	}

	if c.GCP.EnableTracing {
		if c.GCP.OTLPEndpoint == "" {
			return errors.NewValidationError("GCP.OTLPEndpoint is required when tracing is enabled")
		}
		if c.GCP.TraceSamplingRatio < 0 || c.GCP.TraceSamplingRatio > 1 {
			return errors.NewValidationError("GCP.TraceSamplingRatio must be between 0 and 1")
		}
	}

	return nil
}

// String returns the configuration with sensitive values masked
func (c *Config) String() string {
	masked := *c
	masked.Gateway.Token = mask(c.Gateway.Token)
	masked.Gateway.HMACSecret = mask(c.Gateway.HMACSecret)
	masked.Security.AllowedIPsToken = mask(c.Security.AllowedIPsToken)

	out, err := json.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("config (unprintable: %v)", err)
	}
	return string(out)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
