// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

// Transport names for T212_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment names for T212_ENVIRONMENT.
const (
	EnvironmentDemo = "demo"
	EnvironmentLive = "live"
)

// Config holds all application configuration.
type Config struct {
	// Trading212 credentials and cluster.
	APIKey      string
	Environment string // "demo" or "live".

	// Transport selection.
	Transport string // "stdio" or "http".

	// HTTP gateway settings.
	HTTPHost            string // Empty means all interfaces.
	HTTPPort            int
	HTTPPath            string // Path serving the MCP endpoint.
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64 // Maximum request body size in bytes.

	// Downstream settings.
	RequestTimeout time.Duration // Budget for a single Trading212 call.

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool // Plain HTTP to the OTLP endpoint.
	ServiceName  string
}

// Load reads configuration from environment variables with sensible
// defaults and validates it. Parse plus Validate.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads configuration from environment variables without checking
// required fields. Callers that override fields afterwards (the root
// facade options) call Validate themselves.
func Parse() (Config, error) {
	var errs []error

	port, err := envInt("T212_HTTP_PORT", 8080)
	if err != nil {
		errs = append(errs, err)
	}
	readTimeout, err := envDuration("T212_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	writeTimeout, err := envDuration("T212_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	requestTimeout, err := envDuration("T212_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	maxBody, err := envInt("T212_MAX_REQUEST_BODY_BYTES", 4*1024*1024)
	if err != nil {
		errs = append(errs, err)
	}
	otelInsecure, err := envBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return Config{
		APIKey:              envStr("T212_API_KEY", ""),
		Environment:         envStr("T212_ENVIRONMENT", EnvironmentDemo),
		Transport:           envStr("T212_TRANSPORT", TransportStdio),
		HTTPHost:            envStr("T212_HTTP_HOST", ""),
		HTTPPort:            port,
		HTTPPath:            envStr("T212_HTTP_PATH", "/mcp"),
		ReadTimeout:         readTimeout,
		WriteTimeout:        writeTimeout,
		RequestTimeout:      requestTimeout,
		MaxRequestBodyBytes: int64(maxBody),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        otelInsecure,
		ServiceName:         envStr("OTEL_SERVICE_NAME", "trading212-mcp"),
	}, nil
}

// Validate checks that required configuration is present and enums are known.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config: T212_API_KEY is required")
	}
	if c.Environment != EnvironmentDemo && c.Environment != EnvironmentLive {
		return fmt.Errorf("config: T212_ENVIRONMENT must be %q or %q, got %q", EnvironmentDemo, EnvironmentLive, c.Environment)
	}
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("config: T212_TRANSPORT must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: T212_HTTP_PORT must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.HTTPPath, "/") {
		return fmt.Errorf("config: T212_HTTP_PATH must start with '/'")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: T212_MAX_REQUEST_BODY_BYTES must be positive")
	}
	return nil
}

// BaseURL resolves the configured environment to its Trading212 base URL.
func (c Config) BaseURL() string {
	if c.Environment == EnvironmentLive {
		return t212.LiveBaseURL
	}
	return t212.DemoBaseURL
}

// Addr is the listen address for the HTTP transport.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}
