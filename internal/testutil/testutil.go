// Package testutil provides shared test infrastructure: a fake Trading212
// API backed by httptest, and a quiet test logger.
//
// Usage:
//
//	fake := testutil.NewFakeT212(t, map[string]http.HandlerFunc{
//	    "GET /api/v0/equity/portfolio": func(w http.ResponseWriter, r *http.Request) {
//	        testutil.WriteJSON(w, http.StatusOK, []t212.Position{})
//	    },
//	})
package testutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

// FakeT212 is an httptest-backed stand-in for the Trading212 API that
// counts every request reaching it, so tests can assert a call was (or was
// not) forwarded downstream.
type FakeT212 struct {
	Server *httptest.Server
	calls  atomic.Int64
}

// NewFakeT212 builds a fake downstream from "METHOD /path" handler patterns.
// The server is closed automatically when the test finishes.
func NewFakeT212(t *testing.T, handlers map[string]http.HandlerFunc) *FakeT212 {
	t.Helper()
	f := &FakeT212{}
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake's base URL.
func (f *FakeT212) URL() string {
	return f.Server.URL
}

// Calls reports how many requests reached the fake.
func (f *FakeT212) Calls() int64 {
	return f.calls.Load()
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
