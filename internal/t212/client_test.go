package t212

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// mockServer creates an httptest server that mimics the Trading212 API.
func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setRateLimitHeaders applies the five quota headers Trading212 sends.
func setRateLimitHeaders(w http.ResponseWriter, limit, remaining, used, reset, period string) {
	h := w.Header()
	h.Set("x-ratelimit-limit", limit)
	h.Set("x-ratelimit-remaining", remaining)
	h.Set("x-ratelimit-used", used)
	h.Set("x-ratelimit-reset", reset)
	h.Set("x-ratelimit-period", period)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestAccountInfoSendsRawAuthorizationHeader(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/account/info": func(w http.ResponseWriter, r *http.Request) {
			// Trading212 keys go in Authorization verbatim, no Bearer prefix.
			if got := r.Header.Get("Authorization"); got != "test-key" {
				t.Errorf("expected Authorization 'test-key', got %q", got)
			}
			writeJSON(w, http.StatusOK, AccountInfo{ID: 12345, CurrencyCode: "USD"})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	info, err := client.AccountInfo(context.Background())
	if err != nil {
		t.Fatalf("AccountInfo failed: %v", err)
	}
	if info.ID != 12345 {
		t.Errorf("expected id 12345, got %d", info.ID)
	}
	if info.CurrencyCode != "USD" {
		t.Errorf("expected currencyCode 'USD', got %q", info.CurrencyCode)
	}
}

func TestPlaceMarketOrderEchoesOrder(t *testing.T) {
	var receivedBody MarketOrderRequest
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/v0/equity/orders/market": func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&receivedBody); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, Order{
				ID:       1001,
				Ticker:   receivedBody.Ticker,
				Type:     "MARKET",
				Status:   "NEW",
				Quantity: receivedBody.Quantity,
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	order, err := client.PlaceMarketOrder(context.Background(), MarketOrderRequest{
		Ticker:       "AAPL_US_EQ",
		Quantity:     10,
		TimeValidity: TimeValidityDay,
	})
	if err != nil {
		t.Fatalf("PlaceMarketOrder failed: %v", err)
	}
	if order.Type != "MARKET" {
		t.Errorf("expected type 'MARKET', got %q", order.Type)
	}
	if order.ID != 1001 {
		t.Errorf("expected id 1001, got %d", order.ID)
	}
	if receivedBody.Ticker != "AAPL_US_EQ" {
		t.Errorf("expected ticker 'AAPL_US_EQ' in body, got %q", receivedBody.Ticker)
	}
	if receivedBody.Quantity != 10 {
		t.Errorf("expected quantity 10 in body, got %f", receivedBody.Quantity)
	}
	if receivedBody.TimeValidity != TimeValidityDay {
		t.Errorf("expected timeValidity DAY in body, got %q", receivedBody.TimeValidity)
	}
}

func TestRateLimitSnapshotCaptured(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/account/cash": func(w http.ResponseWriter, r *http.Request) {
			setRateLimitHeaders(w, "6", "5", "1", "1700000000", "30")
			writeJSON(w, http.StatusOK, AccountCash{Free: 100, Total: 100})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, err := client.AccountCash(context.Background()); err != nil {
		t.Fatalf("AccountCash failed: %v", err)
	}

	snap, ok := client.RateLimits().Get("/api/v0/equity/account/cash")
	if !ok {
		t.Fatal("expected a snapshot after a response with all five headers")
	}
	if snap.Limit != 6 || snap.Remaining != 5 || snap.Used != 1 {
		t.Errorf("unexpected snapshot counters: %+v", snap)
	}
	if snap.Reset.Unix() != 1700000000 {
		t.Errorf("expected reset 1700000000, got %d", snap.Reset.Unix())
	}
	if snap.Period != 30*time.Second {
		t.Errorf("expected period 30s, got %s", snap.Period)
	}
}

func TestRateLimitSnapshotOverwritten(t *testing.T) {
	call := 0
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/portfolio": func(w http.ResponseWriter, r *http.Request) {
			call++
			if call == 1 {
				setRateLimitHeaders(w, "6", "5", "1", "1700000000", "30")
			} else {
				setRateLimitHeaders(w, "6", "4", "2", "1700000030", "30")
			}
			writeJSON(w, http.StatusOK, []Position{})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx := context.Background()
	if _, err := client.Portfolio(ctx); err != nil {
		t.Fatalf("first Portfolio failed: %v", err)
	}
	if _, err := client.Portfolio(ctx); err != nil {
		t.Fatalf("second Portfolio failed: %v", err)
	}

	snap, ok := client.RateLimits().Get("/api/v0/equity/portfolio")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	// Second call's values only, no merging.
	if snap.Remaining != 4 || snap.Used != 2 {
		t.Errorf("expected the second snapshot to win, got %+v", snap)
	}
	if snap.Reset.Unix() != 1700000030 {
		t.Errorf("expected reset 1700000030, got %d", snap.Reset.Unix())
	}
}

func TestPartialRateLimitHeadersDiscarded(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/orders": func(w http.ResponseWriter, r *http.Request) {
			// Four of five: period is missing.
			h := w.Header()
			h.Set("x-ratelimit-limit", "6")
			h.Set("x-ratelimit-remaining", "5")
			h.Set("x-ratelimit-used", "1")
			h.Set("x-ratelimit-reset", "1700000000")
			writeJSON(w, http.StatusOK, []Order{})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, err := client.Orders(context.Background()); err != nil {
		t.Fatalf("Orders failed: %v", err)
	}

	if _, ok := client.RateLimits().Get("/api/v0/equity/orders"); ok {
		t.Fatal("partial headers must not produce a snapshot")
	}
}

func TestRateLimitedResponseClassified(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/portfolio": func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("x-ratelimit-limit", "60")
			h.Set("x-ratelimit-remaining", "0")
			h.Set("x-ratelimit-reset", "1700000100")
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Portfolio(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsRateLimited(err) {
		t.Fatalf("expected a RateLimit error, got %v", err)
	}

	e, _ := AsError(err)
	if e.RateLimit == nil {
		t.Fatal("expected rate-limit detail")
	}
	if e.RateLimit.Limit != 60 {
		t.Errorf("expected limit 60, got %d", e.RateLimit.Limit)
	}
	if e.RateLimit.Reset.Unix() != 1700000100 {
		t.Errorf("expected reset 1700000100, got %d", e.RateLimit.Reset.Unix())
	}

	// Only three of the five headers arrived, so no snapshot either.
	if _, ok := client.RateLimits().Get("/api/v0/equity/portfolio"); ok {
		t.Error("incomplete headers on a 429 must not produce a snapshot")
	}
}

func TestUnauthorizedResponseClassified(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/account/info": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"errorMessage": "Bad API key"})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.AccountInfo(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsAuthentication(err) {
		t.Fatalf("expected an Authentication error, got %v", err)
	}
	e, _ := AsError(err)
	if e.Message != "Bad API key" {
		t.Errorf("expected message 'Bad API key', got %q", e.Message)
	}
}

func TestErrorMessageExtractionOrder(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field wins", `{"message":"first","errorMessage":"second"}`, "first"},
		{"errorMessage fallback", `{"errorMessage":"second"}`, "second"},
		{"empty message falls through", `{"message":"","errorMessage":"used"}`, "used"},
		{"raw body fallback", `ticker not found`, "ticker not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := mockServer(t, map[string]http.HandlerFunc{
				"GET /api/v0/equity/orders": func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(tc.body))
				},
			})
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			_, err := client.Orders(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !IsAPIError(err) {
				t.Fatalf("expected an API error, got %v", err)
			}
			e, _ := AsError(err)
			if e.Message != tc.want {
				t.Errorf("expected message %q, got %q", tc.want, e.Message)
			}
			if e.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", e.StatusCode)
			}
		})
	}
}

func TestResponseShapeMismatchFailsClosed(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/portfolio/AAPL_US_EQ": func(w http.ResponseWriter, r *http.Request) {
			// 200 with a body missing the ticker: the remote contract changed.
			writeJSON(w, http.StatusOK, map[string]any{"quantity": 10})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Position(context.Background(), "AAPL_US_EQ")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsAPIError(err) {
		t.Fatalf("expected an API error, got %v", err)
	}
	e, _ := AsError(err)
	if e.Code != CodeInvalidResponse {
		t.Errorf("expected code %q, got %q", CodeInvalidResponse, e.Code)
	}
}

func TestMalformedJSONBodyFailsClosed(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/account/info": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.AccountInfo(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	e, ok := AsError(err)
	if !ok || e.Code != CodeInvalidResponse {
		t.Fatalf("expected an invalid_response error, got %v", err)
	}
}

func TestPagedItemValidationFailsClosed(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/history/orders": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"items": []map[string]any{
					{"id": 1, "ticker": "AAPL_US_EQ", "type": "MARKET"},
					{"id": 2, "type": "LIMIT"}, // ticker missing
				},
				"nextPagePath": nil,
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.OrderHistory(context.Background(), Query{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	e, ok := AsError(err)
	if !ok || e.Code != CodeInvalidResponse {
		t.Fatalf("expected an invalid_response error, got %v", err)
	}
	if !strings.Contains(e.Message, "items[1]") {
		t.Errorf("expected the message to point at items[1], got %q", e.Message)
	}
}

func TestHistoryQueryOmittedWhenEmpty(t *testing.T) {
	var rawQuery string
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/history/dividends": func(w http.ResponseWriter, r *http.Request) {
			rawQuery = r.URL.RawQuery
			writeJSON(w, http.StatusOK, map[string]any{"items": []Dividend{}, "nextPagePath": nil})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, err := client.Dividends(context.Background(), Query{}); err != nil {
		t.Fatalf("Dividends failed: %v", err)
	}
	if rawQuery != "" {
		t.Errorf("expected no query string, got %q", rawQuery)
	}
}

func TestHistoryQueryCarriesAllSetParameters(t *testing.T) {
	var received map[string][]string
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/history/orders": func(w http.ResponseWriter, r *http.Request) {
			received = r.URL.Query()
			writeJSON(w, http.StatusOK, map[string]any{"items": []HistoryOrder{}, "nextPagePath": nil})
		},
	})
	defer srv.Close()

	cursor := int64(12345)
	limit := 20
	ticker := "AAPL_US_EQ"

	client := newTestClient(t, srv.URL)
	_, err := client.OrderHistory(context.Background(), Query{Cursor: &cursor, Limit: &limit, Ticker: &ticker})
	if err != nil {
		t.Fatalf("OrderHistory failed: %v", err)
	}

	for key, want := range map[string]string{"cursor": "12345", "limit": "20", "ticker": "AAPL_US_EQ"} {
		vals := received[key]
		if len(vals) != 1 {
			t.Fatalf("expected %q exactly once, got %v", key, vals)
		}
		if vals[0] != want {
			t.Errorf("expected %s=%s, got %s", key, want, vals[0])
		}
	}
}

func TestCancelOrderAcceptsEmptyBody(t *testing.T) {
	var method string
	srv := mockServer(t, map[string]http.HandlerFunc{
		"DELETE /api/v0/equity/orders/42": func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			w.WriteHeader(http.StatusOK)
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.CancelOrder(context.Background(), 42); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if method != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", method)
	}
}

func TestTimeoutHandling(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/v0/equity/portfolio": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			writeJSON(w, http.StatusOK, []Position{})
		},
	})
	defer srv.Close()

	client, cErr := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 50 * time.Millisecond,
	})
	if cErr != nil {
		t.Fatalf("NewClient failed: %v", cErr)
	}

	_, err := client.Portfolio(context.Background())
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !IsAPIError(err) {
		t.Errorf("expected a transport-classified API error, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "empty BaseURL",
			cfg:     Config{APIKey: "k"},
			wantErr: "BaseURL is required",
		},
		{
			name:    "empty APIKey",
			cfg:     Config{BaseURL: "http://localhost:8080"},
			wantErr: "APIKey is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewClient(tc.cfg)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if c != nil {
				t.Error("expected nil client on error")
			}
			if got := err.Error(); !strings.Contains(got, tc.wantErr) {
				t.Errorf("error %q does not contain %q", got, tc.wantErr)
			}
		})
	}

	c, err := NewClient(Config{BaseURL: "http://localhost:8080/", APIKey: "key"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil client")
	}
}
