package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

// Dispatch resolves one tool invocation to its result envelope. It is the
// only place that converts failures, including panics, into envelopes;
// every lower layer lets errors propagate upward unmodified.
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]any) (result *mcplib.CallToolResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool call panicked", "tool", name, "args", args, "panic", r)
			result = errorResult(t212.NewUnknownError(r))
		}
	}()

	fn, ok := s.tools[name]
	if !ok {
		s.logger.Warn("unknown tool requested", "tool", name)
		return errorResult(t212.NewUnknownToolError(name))
	}

	payload, err := fn(ctx, args)
	if err != nil {
		e := t212.Classify(err)
		if e.Kind == t212.KindValidation {
			s.logger.Warn("tool call rejected", "tool", name, "args", args, "error", e.Message)
		} else {
			s.logger.Error("tool call failed", "tool", name, "args", args, "kind", e.Kind, "code", e.Code, "error", e.Message)
		}
		return errorResult(e)
	}
	return successResult(payload)
}

// successResult wraps a tool payload in pretty-printed JSON text content.
func successResult(payload any) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResult(t212.NewUnknownError(fmt.Errorf("marshal payload: %w", err)))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

// errorResult wraps a classified error in the envelope shape clients parse:
// {"error": {...}} with IsError set on the result.
func errorResult(e *t212.Error) *mcplib.CallToolResult {
	body, _ := json.Marshal(map[string]any{"error": e})
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(body)},
		},
		IsError: true,
	}
}
