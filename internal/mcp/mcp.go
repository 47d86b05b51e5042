// Package mcp implements the Model Context Protocol server for the
// Trading212 gateway.
//
// Every brokerage capability is exposed as an MCP tool backed by the shared
// Trading212 client. Tool handlers validate arguments, call the client, and
// answer with a result envelope: a JSON payload on success, or a structured
// error body with IsError set. A tool invocation never surfaces as a
// protocol-level error, whatever happens downstream.
package mcp

import (
	"context"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

// toolFunc executes one validated tool call and returns the payload that is
// serialized into the success envelope.
type toolFunc func(ctx context.Context, args map[string]any) (any, error)

// Server binds the tool catalog to the shared Trading212 client. One Server
// is one dispatch context: the stdio transport builds a single Server for
// the whole process, the HTTP gateway builds one per session.
type Server struct {
	mcpServer *mcpserver.MCPServer
	client    *t212.Client
	logger    *slog.Logger
	tools     map[string]toolFunc
}

// New creates an MCP server with the full Trading212 catalog registered.
func New(client *t212.Client, logger *slog.Logger, version string) *Server {
	s := &Server{
		client: client,
		logger: logger,
		tools:  make(map[string]toolFunc),
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"trading212-mcp",
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithInstructions("Tools for one Trading212 brokerage account: account status, portfolio, order placement, pies, instrument metadata, and account history. In live mode, order and pie tools change a real account."),
	)

	s.registerAccountTools()
	s.registerOrderTools()
	s.registerInstrumentTools()
	s.registerPieTools()
	s.registerHistoryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// register adds a tool to both the protocol catalog and the dispatch table.
func (s *Server) register(tool mcplib.Tool, fn toolFunc) {
	s.tools[tool.Name] = fn
	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return s.Dispatch(ctx, tool.Name, request.GetArguments()), nil
	})
}
