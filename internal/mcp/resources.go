package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// t212://account: account metadata and cash balances.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"t212://account",
			"Account Summary",
			mcplib.WithResourceDescription("Account metadata and cash balances for the connected Trading212 account"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAccountResource,
	)

	// t212://portfolio: every open position.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"t212://portfolio",
			"Portfolio",
			mcplib.WithResourceDescription("Every open position with quantity, prices, and profit/loss"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePortfolioResource,
	)

	// t212://position/{ticker}: one position.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"t212://position/{ticker}",
			"Position",
			mcplib.WithTemplateDescription("A single open position by Trading212 ticker"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handlePositionResource,
	)
}

func (s *Server) handleAccountResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	info, err := s.client.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: account resource: %w", err)
	}
	cash, err := s.client.AccountCash(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: account resource: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{"info": info, "cash": cash}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal account: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "t212://account",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePortfolioResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	positions, err := s.client.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: portfolio resource: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{
		"positions": positions,
		"total":     len(positions),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal portfolio: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "t212://portfolio",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// parsePositionURI extracts the ticker from a t212://position/{ticker} URI.
func parsePositionURI(uri string) (string, error) {
	ticker := strings.TrimPrefix(uri, "t212://position/")
	if ticker == "" || ticker == uri {
		return "", fmt.Errorf("invalid position URI: %s", uri)
	}
	return ticker, nil
}

func (s *Server) handlePositionResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	ticker, err := parsePositionURI(uri)
	if err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}

	position, err := s.client.Position(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("mcp: position resource: %w", err)
	}

	data, err := json.MarshalIndent(position, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal position: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
