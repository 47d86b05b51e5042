package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enderekici/trading212-mcp/internal/mcp"
	"github.com/enderekici/trading212-mcp/internal/server"
	"github.com/enderekici/trading212-mcp/internal/t212"
	"github.com/enderekici/trading212-mcp/internal/testutil"
)

const initializeBody = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0"}}}`

// newGateway stands up the full HTTP gateway in front of a fake Trading212
// API and returns the test server plus the gateway for introspection.
func newGateway(t *testing.T, handlers map[string]http.HandlerFunc) (*httptest.Server, *server.Server) {
	t.Helper()
	fake := testutil.NewFakeT212(t, handlers)
	client, err := t212.NewClient(t212.Config{
		BaseURL: fake.URL(),
		APIKey:  "test-key",
		Logger:  testutil.TestLogger(),
	})
	require.NoError(t, err)

	logger := testutil.TestLogger()
	srv := server.New(server.Config{
		Factory: func() *mcpserver.MCPServer {
			return mcp.New(client, logger, "test").MCPServer()
		},
		Logger:              logger,
		Addr:                ":0",
		Path:                "/mcp",
		MaxRequestBodyBytes: 1 << 20,
		Version:             "test",
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, srv
}

func accountHandlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /api/v0/equity/account/info": func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusOK, t212.AccountInfo{ID: 7, CurrencyCode: "EUR"})
		},
		"GET /api/v0/equity/account/cash": func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusOK, t212.AccountCash{Free: 1000, Total: 1000})
		},
	}
}

// mcpRequest performs one HTTP request against the gateway's /mcp path.
func mcpRequest(t *testing.T, ts *httptest.Server, method, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// initSession runs the initialize handshake and returns the issued id.
func initSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := mcpRequest(t, ts, http.MethodPost, "", initializeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := resp.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, id, "initialize must return a session id header")
	return id
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ---------- plain HTTP surface ----------

func TestHealth(t *testing.T) {
	ts, _ := newGateway(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "trading212-mcp", health.Service)
	assert.Equal(t, "test", health.Version)
}

func TestUnknownPathIsJSON404(t *testing.T) {
	ts, _ := newGateway(t, nil)

	resp, err := http.Get(ts.URL + "/v1/anything")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "not_found", body.Error.Code)
}

func TestRequestIDHeaderAssigned(t *testing.T) {
	ts, _ := newGateway(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newGateway(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/mcp", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Mcp-Session-Id")
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "Mcp-Session-Id")
}

// ---------- session lifecycle ----------

func TestInitializeCreatesSession(t *testing.T) {
	ts, srv := newGateway(t, nil)

	resp := mcpRequest(t, ts, http.MethodPost, "", initializeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Mcp-Session-Id"))
	assert.Equal(t, 1, srv.Sessions())

	var init struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	decodeBody(t, resp, &init)
	assert.Equal(t, "trading212-mcp", init.Result.ServerInfo.Name)
	assert.Equal(t, "test", init.Result.ServerInfo.Version)
}

func TestRequestWithoutSessionRejected(t *testing.T) {
	ts, srv := newGateway(t, nil)

	// A GET with no session header has nothing to attach to.
	resp := mcpRequest(t, ts, http.MethodGet, "", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var rpcErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, resp, &rpcErr)
	assert.Contains(t, rpcErr.Error.Message, "no valid session")

	// A non-initialize POST without a header cannot create one either.
	resp = mcpRequest(t, ts, http.MethodPost, "", `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, srv.Sessions())
}

func TestKnownSessionRoutes(t *testing.T) {
	ts, _ := newGateway(t, nil)
	id := initSession(t, ts)

	resp := mcpRequest(t, ts, http.MethodPost, id, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	decodeBody(t, resp, &list)
	assert.Len(t, list.Result.Tools, 23)
}

func TestUnknownSessionRejected(t *testing.T) {
	ts, _ := newGateway(t, nil)

	resp := mcpRequest(t, ts, http.MethodPost, "ffffffff-0000-0000-0000-000000000000",
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var rpcErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, resp, &rpcErr)
	assert.Contains(t, rpcErr.Error.Message, "no valid session")
}

func TestDeleteTearsDownSession(t *testing.T) {
	ts, srv := newGateway(t, nil)
	id := initSession(t, ts)
	require.Equal(t, 1, srv.Sessions())

	resp := mcpRequest(t, ts, http.MethodDelete, id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, srv.Sessions())

	// The id can never route again.
	resp = mcpRequest(t, ts, http.MethodPost, id, `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Deleting twice reports no valid session.
	resp = mcpRequest(t, ts, http.MethodDelete, id, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWithValidSessionIsMethodNotAllowed(t *testing.T) {
	ts, _ := newGateway(t, nil)
	id := initSession(t, ts)

	resp := mcpRequest(t, ts, http.MethodGet, id, "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Allow"))
}

func TestNotificationAnsweredWithAccepted(t *testing.T) {
	ts, _ := newGateway(t, nil)
	id := initSession(t, ts)

	resp := mcpRequest(t, ts, http.MethodPost, id, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestInvalidJSONRejected(t *testing.T) {
	ts, srv := newGateway(t, nil)

	resp := mcpRequest(t, ts, http.MethodPost, "", `{"jsonrpc": "2.0", "method": "initialize"`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, srv.Sessions(), "a malformed body must not create a session")
}

func TestOversizedBodyRejectedBeforeParsing(t *testing.T) {
	fake := testutil.NewFakeT212(t, nil)
	client, err := t212.NewClient(t212.Config{
		BaseURL: fake.URL(),
		APIKey:  "test-key",
		Logger:  testutil.TestLogger(),
	})
	require.NoError(t, err)

	logger := testutil.TestLogger()
	srv := server.New(server.Config{
		Factory: func() *mcpserver.MCPServer {
			return mcp.New(client, logger, "test").MCPServer()
		},
		Logger:              logger,
		Addr:                ":0",
		Path:                "/mcp",
		MaxRequestBodyBytes: 64,
		Version:             "test",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	big := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"padding":"` +
		strings.Repeat("x", 256) + `"}}`
	resp := mcpRequest(t, ts, http.MethodPost, "", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, 0, srv.Sessions())
}

// ---------- session isolation ----------

func TestSessionsAreIsolated(t *testing.T) {
	ts, srv := newGateway(t, nil)

	first := initSession(t, ts)
	second := initSession(t, ts)
	require.NotEqual(t, first, second)
	require.Equal(t, 2, srv.Sessions())

	// Tearing down the first leaves the second routable.
	resp := mcpRequest(t, ts, http.MethodDelete, first, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = mcpRequest(t, ts, http.MethodPost, second, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, srv.Sessions())
}

func TestConcurrentSessionCreation(t *testing.T) {
	ts, srv := newGateway(t, nil)

	const clients = 8
	var (
		mu  sync.Mutex
		ids = make(map[string]bool, clients)
		wg  sync.WaitGroup
	)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(initializeBody))
			if err != nil {
				t.Error(err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Error(err)
				return
			}
			defer func() { _ = resp.Body.Close() }()

			id := resp.Header.Get("Mcp-Session-Id")
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, clients, "every client must get its own session id")
	assert.Equal(t, clients, srv.Sessions())
}

// ---------- end-to-end through a real MCP client ----------

func newMCPClient(t *testing.T, ts *httptest.Server) *mcpclient.Client {
	t.Helper()
	c, err := mcpclient.NewStreamableHttpClient(ts.URL + "/mcp")
	require.NoError(t, err)
	return c
}

func initializeClient(t *testing.T, c *mcpclient.Client) *mcplib.InitializeResult {
	t.Helper()
	result, err := c.Initialize(context.Background(), mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "test-client", Version: "1.0"},
		},
	})
	require.NoError(t, err)
	return result
}

func TestMCPClientInitialize(t *testing.T) {
	ts, srv := newGateway(t, nil)
	c := newMCPClient(t, ts)
	defer func() { _ = c.Close() }()

	initResult := initializeClient(t, c)
	assert.Equal(t, "trading212-mcp", initResult.ServerInfo.Name)
	assert.Equal(t, "test", initResult.ServerInfo.Version)
	assert.Equal(t, 1, srv.Sessions())
}

func TestMCPClientListTools(t *testing.T) {
	ts, _ := newGateway(t, nil)
	c := newMCPClient(t, ts)
	defer func() { _ = c.Close() }()
	initializeClient(t, c)

	toolsResult, err := c.ListTools(context.Background(), mcplib.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, toolsResult.Tools, 23)

	toolNames := make(map[string]bool)
	for _, tool := range toolsResult.Tools {
		toolNames[tool.Name] = true
	}
	assert.True(t, toolNames["t212_account_info"], "expected t212_account_info tool")
	assert.True(t, toolNames["t212_place_market_order"], "expected t212_place_market_order tool")
	assert.True(t, toolNames["t212_export"], "expected t212_export tool")
}

func TestMCPClientCallTool(t *testing.T) {
	ts, _ := newGateway(t, accountHandlers())
	c := newMCPClient(t, ts)
	defer func() { _ = c.Close() }()
	initializeClient(t, c)

	result, err := c.CallTool(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "t212_account_cash",
			Arguments: map[string]any{},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "tool returned error: %v", result.Content)

	tc, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok)

	var cash t212.AccountCash
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &cash))
	assert.Equal(t, 1000.0, cash.Free)
}

func TestMCPClientToolFailureIsEnvelopedNotThrown(t *testing.T) {
	ts, _ := newGateway(t, nil)
	c := newMCPClient(t, ts)
	defer func() { _ = c.Close() }()
	initializeClient(t, c)

	// Missing every required argument: the call must come back as a result
	// envelope with IsError, never as a protocol error.
	result, err := c.CallTool(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "t212_place_market_order",
			Arguments: map[string]any{},
		},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)

	tc, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, `"VALIDATION"`)
	assert.Contains(t, tc.Text, "ticker")
	assert.Contains(t, tc.Text, "quantity")
}
