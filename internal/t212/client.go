// Package t212 is the HTTP client for the Trading212 public API v0.
//
// It turns one validated intention into exactly one outbound request and
// one classified outcome: the credential is attached from configuration,
// rate-limit headers are captured into a shared snapshot store, and every
// failure is normalized into the closed *Error taxonomy. The client never
// retries, caches, or queues.
package t212

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/enderekici/trading212-mcp/internal/ratelimit"
)

// DemoBaseURL and LiveBaseURL are the two mutually exclusive Trading212
// environments. Demo trades with practice money.
const (
	DemoBaseURL = "https://demo.trading212.com"
	LiveBaseURL = "https://live.trading212.com"
)

const defaultTimeout = 30 * time.Second

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the Trading212 environment
	// (DemoBaseURL or LiveBaseURL, or a test server).
	BaseURL string

	// APIKey is sent verbatim in the Authorization header. Trading212
	// keys are used raw, without a Bearer prefix.
	APIKey string

	// HTTPClient is an optional custom HTTP client. If nil, a default
	// client with Timeout applied is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration

	// Store receives the rate-limit snapshots captured from response
	// headers. If nil, a fresh in-memory store is used.
	Store ratelimit.Store

	// Logger is used for request diagnostics. If nil, slog.Default().
	Logger *slog.Logger
}

// Client is an HTTP client for the Trading212 API. One Client serves the
// whole process; all methods are safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	store   ratelimit.Store
	logger  *slog.Logger
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL or APIKey is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("t212: BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("t212: APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	store := cfg.Store
	if store == nil {
		store = ratelimit.NewMemoryStore()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
		store:   store,
		logger:  logger,
	}, nil
}

// RateLimits exposes the shared snapshot store so callers can inspect
// captured quota state.
func (c *Client) RateLimits() ratelimit.Store { return c.store }

// AccountInfo fetches the account's id and base currency.
func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	var out AccountInfo
	if err := c.get(ctx, "/api/v0/equity/account/info", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AccountCash fetches the account's cash breakdown.
func (c *Client) AccountCash(ctx context.Context) (*AccountCash, error) {
	var out AccountCash
	if err := c.get(ctx, "/api/v0/equity/account/cash", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Portfolio fetches all open positions.
func (c *Client) Portfolio(ctx context.Context) ([]Position, error) {
	var out positionList
	if err := c.get(ctx, "/api/v0/equity/portfolio", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Position fetches a single open position by ticker.
func (c *Client) Position(ctx context.Context, ticker string) (*Position, error) {
	var out Position
	if err := c.get(ctx, "/api/v0/equity/portfolio/"+url.PathEscape(ticker), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders fetches all pending equity orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out orderList
	if err := c.get(ctx, "/api/v0/equity/orders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Order fetches a single pending order by id.
func (c *Client) Order(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := c.get(ctx, "/api/v0/equity/orders/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels a pending order by id.
func (c *Client) CancelOrder(ctx context.Context, id int64) error {
	return c.doDelete(ctx, "/api/v0/equity/orders/"+strconv.FormatInt(id, 10), nil)
}

// PlaceMarketOrder submits a market order.
func (c *Client) PlaceMarketOrder(ctx context.Context, req MarketOrderRequest) (*Order, error) {
	var out Order
	if err := c.post(ctx, "/api/v0/equity/orders/market", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceLimitOrder submits a limit order.
func (c *Client) PlaceLimitOrder(ctx context.Context, req LimitOrderRequest) (*Order, error) {
	var out Order
	if err := c.post(ctx, "/api/v0/equity/orders/limit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceStopOrder submits a stop order.
func (c *Client) PlaceStopOrder(ctx context.Context, req StopOrderRequest) (*Order, error) {
	var out Order
	if err := c.post(ctx, "/api/v0/equity/orders/stop", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceStopLimitOrder submits a stop-limit order.
func (c *Client) PlaceStopLimitOrder(ctx context.Context, req StopLimitOrderRequest) (*Order, error) {
	var out Order
	if err := c.post(ctx, "/api/v0/equity/orders/stop_limit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Instruments fetches the full tradable-instrument catalog.
func (c *Client) Instruments(ctx context.Context) ([]Instrument, error) {
	var out instrumentList
	if err := c.get(ctx, "/api/v0/equity/metadata/instruments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Exchanges fetches the exchange catalog with working schedules.
func (c *Client) Exchanges(ctx context.Context) ([]Exchange, error) {
	var out exchangeList
	if err := c.get(ctx, "/api/v0/equity/metadata/exchanges", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pies fetches all investment pies.
func (c *Client) Pies(ctx context.Context) ([]Pie, error) {
	var out pieList
	if err := c.get(ctx, "/api/v0/equity/pies", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pie fetches one pie with holdings and settings.
func (c *Client) Pie(ctx context.Context, id int64) (*PieDetail, error) {
	var out PieDetail
	if err := c.get(ctx, "/api/v0/equity/pies/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePie creates a new pie.
func (c *Client) CreatePie(ctx context.Context, req PieRequest) (*PieDetail, error) {
	var out PieDetail
	if err := c.post(ctx, "/api/v0/equity/pies", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePie replaces an existing pie's settings.
func (c *Client) UpdatePie(ctx context.Context, id int64, req PieRequest) (*PieDetail, error) {
	var out PieDetail
	if err := c.post(ctx, "/api/v0/equity/pies/"+strconv.FormatInt(id, 10), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePie deletes a pie by id.
func (c *Client) DeletePie(ctx context.Context, id int64) error {
	return c.doDelete(ctx, "/api/v0/equity/pies/"+strconv.FormatInt(id, 10), nil)
}

// OrderHistory fetches historical orders, newest first.
func (c *Client) OrderHistory(ctx context.Context, q Query) (*Paged[HistoryOrder], error) {
	var out Paged[HistoryOrder]
	if err := c.get(ctx, "/api/v0/equity/history/orders"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dividends fetches paid dividends.
func (c *Client) Dividends(ctx context.Context, q Query) (*Paged[Dividend], error) {
	var out Paged[Dividend]
	if err := c.get(ctx, "/api/v0/history/dividends"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions fetches cash movements. The endpoint ignores any ticker
// filter; callers pass cursor and limit only.
func (c *Client) Transactions(ctx context.Context, q Query) (*Paged[Transaction], error) {
	var out Paged[Transaction]
	if err := c.get(ctx, "/api/v0/history/transactions"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestExport queues a CSV export of account history.
func (c *Client) RequestExport(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	var out ExportResponse
	if err := c.post(ctx, "/api/v0/history/exports", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) doDelete(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodDelete, path, nil, dest)
}

// do issues exactly one request and resolves it to exactly one outcome.
// The only side effect is the rate-limit snapshot overwrite.
func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("t212: marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("t212: create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("trading212 request", "method", method, "path", path)

	resp, err := c.client.Do(req)
	if err != nil {
		return newTransportError(method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Snapshots are keyed by the path without its query string.
	endpoint, _, _ := strings.Cut(path, "?")
	c.captureRateLimit(endpoint, resp.Header)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportError(method, path, fmt.Errorf("read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return rateLimitError(resp.Header)
	case resp.StatusCode == http.StatusUnauthorized:
		return NewAuthenticationError(extractMessage(bodyBytes))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return NewAPIError(resp.StatusCode, extractMessage(bodyBytes))
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, dest); err != nil {
		return newInvalidResponseError(resp.StatusCode, path, fmt.Errorf("decode body: %w", err))
	}
	if v, ok := dest.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return newInvalidResponseError(resp.StatusCode, path, err)
		}
	}
	return nil
}

// captureRateLimit overwrites the endpoint's snapshot when, and only
// when, all five x-ratelimit-* headers are present and numeric.
func (c *Client) captureRateLimit(endpoint string, h http.Header) {
	snap, ok := parseRateLimit(h)
	if !ok {
		return
	}
	c.store.Set(endpoint, snap)
	if snap.Remaining == 0 {
		c.logger.Warn("trading212 rate limit exhausted",
			"endpoint", endpoint,
			"limit", snap.Limit,
			"reset", snap.Reset)
	}
}

func parseRateLimit(h http.Header) (ratelimit.Snapshot, bool) {
	limit, ok1 := headerInt(h, "x-ratelimit-limit")
	remaining, ok2 := headerInt(h, "x-ratelimit-remaining")
	used, ok3 := headerInt(h, "x-ratelimit-used")
	reset, ok4 := headerInt(h, "x-ratelimit-reset")
	period, ok5 := headerInt(h, "x-ratelimit-period")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return ratelimit.Snapshot{}, false
	}
	return ratelimit.Snapshot{
		Limit:     limit,
		Remaining: remaining,
		Used:      used,
		Reset:     time.Unix(int64(reset), 0),
		Period:    time.Duration(period) * time.Second,
	}, true
}

// rateLimitError builds the 429 error straight from headers, independent
// of body parsing. Unlike snapshot capture it takes whatever is present.
func rateLimitError(h http.Header) *Error {
	limit, _ := headerInt(h, "x-ratelimit-limit")
	var reset time.Time
	if v, ok := headerInt(h, "x-ratelimit-reset"); ok {
		reset = time.Unix(int64(v), 0)
	}
	return NewRateLimitError(limit, reset)
}

func headerInt(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractMessage pulls a human-readable message out of an error body:
// the "message" field, then "errorMessage", then the raw body text.
// The first non-empty string wins.
func extractMessage(body []byte) string {
	for _, key := range []string{"message", "errorMessage"} {
		if v := gjson.GetBytes(body, key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}
