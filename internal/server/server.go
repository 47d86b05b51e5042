// Package server is the multi-session HTTP transport for the MCP gateway.
//
// One listener accepts JSON-RPC messages at a single well-known path and
// multiplexes them across sessions. Each session owns an isolated dispatch
// context built by the configured factory; all contexts share the one
// process-wide Trading212 client behind them. Sessions are keyed by the
// Mcp-Session-Id header and live until the client deletes them or the
// process exits.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// headerSessionID carries the opaque session handle on requests and on the
// initialize response.
const headerSessionID = "Mcp-Session-Id"

const defaultMaxBodyBytes = 4 * 1024 * 1024

// Config holds the dependencies and settings for the HTTP gateway.
type Config struct {
	// Factory builds one fresh dispatch context per session.
	Factory func() *mcpserver.MCPServer
	Logger  *slog.Logger

	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Path is the MCP endpoint path, e.g. "/mcp".
	Path string

	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64
	Version             string
}

// Server is the session-multiplexed HTTP gateway.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	factory    func() *mcpserver.MCPServer
	table      *sessionTable
	logger     *slog.Logger
	path       string
	maxBody    int64
	version    string
	startedAt  time.Time
}

// New creates the gateway with all routes configured.
func New(cfg Config) *Server {
	maxBody := cfg.MaxRequestBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	s := &Server{
		factory:   cfg.Factory,
		table:     newSessionTable(),
		logger:    cfg.Logger,
		path:      cfg.Path,
		maxBody:   maxBody,
		version:   cfg.Version,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()

	// Liveness: fixed shape, no session or downstream dependency.
	mux.HandleFunc("GET /health", s.handleHealth)

	// The MCP endpoint takes every method; handleMCP dispatches.
	mux.HandleFunc(cfg.Path, s.handleMCP)

	// Everything else is a JSON 404.
	mux.HandleFunc("/", s.handleNotFound)

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.handler = handler
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions reports how many sessions are currently open.
func (s *Server) Sessions() int {
	return s.table.len()
}

// Start begins serving HTTP requests and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("http gateway starting", "addr", s.httpServer.Addr, "path", s.path)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the listener. In-flight downstream calls are allowed to
// finish on their own; their results are discarded with the process.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http gateway shutting down", "open_sessions", s.table.len())
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONBody(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  "trading212-mcp",
		"version":  s.version,
		"uptime_s": int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONBody(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"code": "not_found", "message": "no such path: " + r.URL.Path},
	})
}

// handleMCP fans one request out by method. CORS headers go on every
// response from this path so browser-based clients can reach the gateway.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+headerSessionID)
	h.Set("Access-Control-Expose-Headers", headerSessionID)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		writeRPCError(w, http.StatusMethodNotAllowed, rpcCodeInvalidRequest, "method not allowed")
	}
}

// handlePost is the message path: cap the body, resolve the session, and
// feed the raw JSON-RPC message to the session's dispatch context.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeRPCError(w, http.StatusRequestEntityTooLarge, rpcCodeInvalidRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeRPCError(w, http.StatusBadRequest, rpcCodeInvalidRequest, "unreadable request body")
		return
	}
	if !json.Valid(body) {
		writeRPCError(w, http.StatusBadRequest, rpcCodeParseError, "request body is not valid JSON")
		return
	}

	sess, ok := s.resolveSession(w, r, body)
	if !ok {
		return
	}

	response := sess.mcp.HandleMessage(r.Context(), body)
	if response == nil {
		// Notifications have no response.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSONBody(w, http.StatusOK, response)
}

// resolveSession routes the request to its dispatch context. A POST without
// a session header creates a session when, and only when, the message is an
// initialize request; anything else without a recognized id has no valid
// session to run in.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request, body []byte) (*session, bool) {
	id := r.Header.Get(headerSessionID)
	if id == "" {
		if gjson.GetBytes(body, "method").String() != "initialize" {
			writeRPCError(w, http.StatusBadRequest, rpcCodeInvalidRequest, "no valid session")
			return nil, false
		}
		sess := s.table.create(s.factory())
		w.Header().Set(headerSessionID, sess.id)
		s.logger.Info("session created", "session_id", sess.id, "open_sessions", s.table.len())
		return sess, true
	}

	sess, ok := s.table.get(id)
	if !ok {
		writeRPCError(w, http.StatusBadRequest, rpcCodeInvalidRequest, "no valid session")
		return nil, false
	}
	return sess, true
}

// handleGet rejects stream requests. The gateway answers every call on the
// POST that carried it and never opens a server-initiated stream, which the
// protocol permits; a valid session is still required to learn that.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(headerSessionID)
	if id == "" {
		writeRPCError(w, http.StatusBadRequest, rpcCodeInvalidRequest, "no valid session")
		return
	}
	if _, ok := s.table.get(id); !ok {
		writeRPCError(w, http.StatusBadRequest, rpcCodeInvalidRequest, "no valid session")
		return
	}
	w.Header().Set("Allow", "POST, DELETE, OPTIONS")
	writeRPCError(w, http.StatusMethodNotAllowed, rpcCodeInvalidRequest, "server does not offer a notification stream")
}

// handleDelete tears the session down. The id can never route again.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(headerSessionID)
	if id == "" || !s.table.remove(id) {
		writeRPCError(w, http.StatusBadRequest, rpcCodeInvalidRequest, "no valid session")
		return
	}
	s.logger.Info("session closed", "session_id", id, "open_sessions", s.table.len())
	w.WriteHeader(http.StatusNoContent)
}

// JSON-RPC error codes used by the transport layer.
const (
	rpcCodeParseError     = -32700
	rpcCodeInvalidRequest = -32600
)

type rpcErrorBody struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Error   rpcErrorDetail `json:"error"`
}

type rpcErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeRPCError answers a transport-level failure as a JSON-RPC error body.
// Tool-level failures never take this path; they come back as result
// envelopes from the dispatch context.
func writeRPCError(w http.ResponseWriter, status, code int, message string) {
	writeJSONBody(w, status, rpcErrorBody{
		JSONRPC: "2.0",
		Error:   rpcErrorDetail{Code: code, Message: message},
	})
}

func writeJSONBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
