package trading212mcp

import (
	"log/slog"
	"net/http"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all overrides after applying defaults.
// Unexported; callers use the With* functions.
type resolvedOptions struct {
	apiKey      string
	environment string
	transport   string
	httpHost    string
	httpPort    int
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	version     string
}

// WithAPIKey overrides the Trading212 API key from config (T212_API_KEY env var).
func WithAPIKey(key string) Option {
	return func(o *resolvedOptions) { o.apiKey = key }
}

// WithEnvironment overrides the Trading212 environment from config
// (T212_ENVIRONMENT env var). Valid values are "demo" and "live".
func WithEnvironment(env string) Option {
	return func(o *resolvedOptions) { o.environment = env }
}

// WithTransport overrides the transport from config (T212_TRANSPORT env var).
// Valid values are "stdio" and "http".
func WithTransport(transport string) Option {
	return func(o *resolvedOptions) { o.transport = transport }
}

// WithHTTPAddr overrides the HTTP listen address from config (T212_HTTP_HOST
// and T212_HTTP_PORT env vars). Port must be nonzero for the override to
// take effect; an empty host means all interfaces.
func WithHTTPAddr(host string, port int) Option {
	return func(o *resolvedOptions) {
		o.httpHost = host
		o.httpPort = port
	}
}

// WithBaseURL points the client at an explicit Trading212 base URL instead
// of the one implied by the environment. Intended for tests and mock
// downstreams.
func WithBaseURL(url string) Option {
	return func(o *resolvedOptions) { o.baseURL = url }
}

// WithHTTPClient sets the http.Client used for Trading212 calls.
// If not set, a default client with the configured request timeout is used.
func WithHTTPClient(c *http.Client) Option {
	return func(o *resolvedOptions) { o.httpClient = c }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported to MCP clients, the health
// endpoint, and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}
