package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

func (s *Server) registerAccountTools() {
	// t212_account_info: account id and base currency.
	s.register(
		mcplib.NewTool("t212_account_info",
			mcplib.WithDescription("Fetch account metadata: the numeric account id and the account's base currency code."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolAccountInfo,
	)

	// t212_account_cash: free/invested/blocked balances.
	s.register(
		mcplib.NewTool("t212_account_cash",
			mcplib.WithDescription("Fetch the account's cash balances: free, invested, blocked, pie cash, total, and unrealized profit/loss."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolAccountCash,
	)

	// t212_account_summary: info and cash in one call.
	s.register(
		mcplib.NewTool("t212_account_summary",
			mcplib.WithDescription("Fetch account metadata and cash balances together. Equivalent to calling t212_account_info and t212_account_cash, combined into one response."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolAccountSummary,
	)

	// t212_portfolio: all open positions.
	s.register(
		mcplib.NewTool("t212_portfolio",
			mcplib.WithDescription("List every open position in the portfolio with quantity, average price, current price, and profit/loss."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolPortfolio,
	)

	// t212_position: one position by ticker.
	s.register(
		mcplib.NewTool("t212_position",
			mcplib.WithDescription("Fetch a single open position by its Trading212 ticker (e.g. AAPL_US_EQ)."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("ticker",
				mcplib.Description("Trading212 instrument ticker, e.g. AAPL_US_EQ. Use t212_search_instruments to find it."),
				mcplib.Required(),
			),
		),
		s.toolPosition,
	)
}

func (s *Server) toolAccountInfo(ctx context.Context, args map[string]any) (any, error) {
	return s.client.AccountInfo(ctx)
}

func (s *Server) toolAccountCash(ctx context.Context, args map[string]any) (any, error) {
	return s.client.AccountCash(ctx)
}

// toolAccountSummary fetches info and cash concurrently; both must succeed.
func (s *Server) toolAccountSummary(ctx context.Context, args map[string]any) (any, error) {
	var (
		info *t212.AccountInfo
		cash *t212.AccountCash
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = s.client.AccountInfo(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		cash, err = s.client.AccountCash(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{"info": info, "cash": cash}, nil
}

func (s *Server) toolPortfolio(ctx context.Context, args map[string]any) (any, error) {
	positions, err := s.client.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"positions": positions, "total": len(positions)}, nil
}

func (s *Server) toolPosition(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	ticker := bag.requireString("ticker")
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.Position(ctx, ticker)
}
