package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	// portfolio-review: walks the agent through a structured account review.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("portfolio-review",
			mcplib.WithPromptDescription("Review the account's positions, cash, and pending orders"),
		),
		s.handlePortfolioReviewPrompt,
	)

	// before-order: checks to run before placing any order.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("before-order",
			mcplib.WithPromptDescription("Verify an instrument and the account state before placing an order"),
			mcplib.WithArgument("ticker",
				mcplib.ArgumentDescription("The instrument you intend to trade, as a ticker or company name"),
				mcplib.RequiredArgument(),
			),
		),
		s.handleBeforeOrderPrompt,
	)

	// account-setup: system prompt snippet explaining the tool families.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("account-setup",
			mcplib.WithPromptDescription("System prompt snippet explaining how to work with the Trading212 tools"),
		),
		s.handleAccountSetupPrompt,
	)
}

func (s *Server) handlePortfolioReviewPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	return &mcplib.GetPromptResult{
		Description: "Structured review of the Trading212 account",
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: `Review this Trading212 account step by step:

1. CALL t212_account_summary for the account currency and cash balances.

2. CALL t212_portfolio for the open positions.

3. CALL t212_orders for anything still pending.

4. REPORT:
   - Total account value (free cash + invested) and the base currency
   - Each position with its unrealized profit/loss (ppl)
   - Concentration: flag any single position above a quarter of invested value
   - Pending orders that look stale or duplicated

Figures come back in the account's base currency unless stated otherwise.
Do not place or cancel anything during a review.`,
				},
			},
		},
	}, nil
}

func (s *Server) handleBeforeOrderPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	ticker := request.Params.Arguments["ticker"]
	if ticker == "" {
		return nil, fmt.Errorf("ticker argument is required")
	}

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Pre-order checks for %s", ticker),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Before placing any order for %q, run these checks:

1. RESOLVE the instrument: call t212_search_instruments with query="%s".
   Trading212 tickers are not plain symbols: Apple is AAPL_US_EQ, not AAPL.
   If several instruments match, ask which one is meant instead of guessing.

2. CHECK the cash: call t212_account_cash and confirm the free balance
   covers the intended order value.

3. CHECK for overlap: call t212_orders and make sure there is no pending
   order for the same instrument that this one would duplicate.

4. PLACE the order with the matching tool (t212_place_market_order,
   t212_place_limit_order, t212_place_stop_order, or
   t212_place_stop_limit_order), quoting the exact ticker from step 1.

5. CONFIRM: report the returned order id, type, and status back verbatim.`, ticker, ticker),
				},
			},
		},
	}, nil
}

func (s *Server) handleAccountSetupPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	return &mcplib.GetPromptResult{
		Description: "How to work with the Trading212 tools",
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: `You are connected to one Trading212 brokerage account through a set of tools.

## Tool Families

- Account: t212_account_info, t212_account_cash, t212_account_summary
- Portfolio: t212_portfolio, t212_position
- Orders: t212_orders, t212_order, t212_cancel_order, and four placement
  tools (market, limit, stop, stop-limit)
- Instruments: t212_search_instruments, t212_exchanges
- Pies: t212_pies, t212_pie, t212_create_pie, t212_update_pie, t212_delete_pie
- History: t212_order_history, t212_dividends, t212_transactions, t212_export

## Ground Rules

- The account is either a practice (demo) or a real-money (live) account.
  Treat every order, pie change, and cancellation as real.
- Tickers are Trading212-specific (AAPL_US_EQ, not AAPL). Resolve them with
  t212_search_instruments before trading.
- Quantities and prices must be strictly positive. Orders default to DAY
  validity unless GOOD_TILL_CANCEL is requested.
- Trading212 rate-limits each endpoint. If a tool reports a RATE_LIMIT
  error, wait until the reset time it carries; do not hammer the endpoint.
- Tool failures come back as structured errors with a kind, code, and
  message. Read them before retrying; a VALIDATION error means the
  arguments were wrong, not that the request should be repeated.

## History Pagination

History tools return an items array plus nextPagePath. When nextPagePath
is present, pass its cursor value to the same tool to fetch the next page.`,
				},
			},
		},
	}, nil
}
