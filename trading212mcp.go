// Package trading212mcp is the public API for embedding the Trading212 MCP
// gateway.
//
// Consumers construct an App and run it:
//
//	app, err := trading212mcp.New(
//	    trading212mcp.WithVersion(version),
//	    trading212mcp.WithLogger(logger),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: trading212mcp (root)
// imports internal/*, but internal/* never imports the root.
package trading212mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/enderekici/trading212-mcp/internal/config"
	"github.com/enderekici/trading212-mcp/internal/mcp"
	"github.com/enderekici/trading212-mcp/internal/server"
	"github.com/enderekici/trading212-mcp/internal/t212"
	"github.com/enderekici/trading212-mcp/internal/telemetry"
)

// shutdownTimeout bounds the HTTP drain phase during Shutdown.
const shutdownTimeout = 10 * time.Second

// App is the gateway lifecycle. Construct with New(), run with Run().
// App has no public fields; use New() options to configure it.
type App struct {
	cfg          config.Config
	client       *t212.Client
	srv          *server.Server // nil on the stdio transport
	stdio        *mcp.Server    // nil on the http transport
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initialises the gateway. It loads configuration, applies option
// overrides, and wires the Trading212 client plus the selected transport.
// It does NOT start any goroutines or accept connections; call Run().
func New(opts ...Option) (*App, error) {
	// Apply options.
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides, then
	// validate the merged result.
	cfg, err := config.Parse()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.apiKey != "" {
		cfg.APIKey = o.apiKey
	}
	if o.environment != "" {
		cfg.Environment = o.environment
	}
	if o.transport != "" {
		cfg.Transport = o.transport
	}
	if o.httpPort != 0 {
		cfg.HTTPHost = o.httpHost
		cfg.HTTPPort = o.httpPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	baseURL := cfg.BaseURL()
	if o.baseURL != "" {
		baseURL = o.baseURL
	}

	logger.Info("trading212-mcp starting",
		"version", version,
		"transport", cfg.Transport,
		"environment", cfg.Environment,
	)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Shared Trading212 client. One client serves every session; the
	// rate-limit snapshot store inside it is process-wide.
	client, err := t212.NewClient(t212.Config{
		BaseURL:    baseURL,
		APIKey:     cfg.APIKey,
		HTTPClient: o.httpClient,
		Timeout:    cfg.RequestTimeout,
		Logger:     logger,
	})
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("t212 client: %w", err)
	}

	a := &App{
		cfg:          cfg,
		client:       client,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}

	switch cfg.Transport {
	case config.TransportStdio:
		// One dispatch context for the whole process.
		a.stdio = mcp.New(client, logger, version)
	case config.TransportHTTP:
		a.srv = server.New(server.Config{
			Factory: func() *mcpserver.MCPServer {
				return mcp.New(client, logger, version).MCPServer()
			},
			Logger:              logger,
			Addr:                cfg.Addr(),
			Path:                cfg.HTTPPath,
			ReadTimeout:         cfg.ReadTimeout,
			WriteTimeout:        cfg.WriteTimeout,
			MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
			Version:             version,
		})
	}

	return a, nil
}

// Run serves the configured transport until ctx is cancelled or a fatal
// transport error occurs. On return, Shutdown has been called; callers
// should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	if a.stdio != nil {
		return a.runStdio(ctx)
	}
	return a.runHTTP(ctx)
}

// runStdio serves MCP over the process's stdin/stdout pair. Logs must go
// to stderr; stdout carries protocol frames.
func (a *App) runStdio(ctx context.Context) error {
	a.logger.Info("stdio transport ready")

	srv := mcpserver.NewStdioServer(a.stdio.MCPServer())
	srv.SetErrorLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError))

	err := srv.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		_ = a.Shutdown(context.Background())
		return fmt.Errorf("stdio transport: %w", err)
	}
	return a.Shutdown(context.Background())
}

func (a *App) runHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = a.Shutdown(context.Background())
		return err
	}

	return a.Shutdown(context.Background())
}

// Shutdown drains the HTTP listener (when one is running) and flushes
// telemetry. Open sessions die with the listener; there is nothing to
// persist on the way down.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("trading212-mcp shutting down")

	if a.srv != nil {
		httpCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := a.srv.Shutdown(httpCtx); err != nil {
			a.logger.Error("http shutdown error", "error", err)
		}
		cancel()
	}

	_ = a.otelShutdown(context.Background())

	a.logger.Info("trading212-mcp stopped")
	return nil
}
