package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

func (s *Server) registerHistoryTools() {
	// t212_order_history: filled, rejected, and cancelled orders.
	s.register(
		mcplib.NewTool("t212_order_history",
			mcplib.WithDescription("Page through historical orders: fills, rejections, and cancellations. The response carries a nextPagePath when more data exists; pass its cursor to continue."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("cursor",
				mcplib.Description("Pagination cursor from a previous page"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum items per page"),
				mcplib.Min(1),
				mcplib.Max(50),
			),
			mcplib.WithString("ticker",
				mcplib.Description("Only orders for this instrument ticker"),
			),
		),
		s.toolOrderHistory,
	)

	// t212_dividends: paid dividends.
	s.register(
		mcplib.NewTool("t212_dividends",
			mcplib.WithDescription("Page through dividends paid out to the account."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("cursor",
				mcplib.Description("Pagination cursor from a previous page"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum items per page"),
				mcplib.Min(1),
				mcplib.Max(50),
			),
			mcplib.WithString("ticker",
				mcplib.Description("Only dividends for this instrument ticker"),
			),
		),
		s.toolDividends,
	)

	// t212_transactions: cash movements.
	s.register(
		mcplib.NewTool("t212_transactions",
			mcplib.WithDescription("Page through cash transactions: deposits, withdrawals, fees, and transfers."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("cursor",
				mcplib.Description("Pagination cursor from a previous page"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum items per page"),
				mcplib.Min(1),
				mcplib.Max(50),
			),
		),
		s.toolTransactions,
	)

	// t212_export: request a CSV export of account history.
	s.register(
		mcplib.NewTool("t212_export",
			mcplib.WithDescription("Request a CSV export of account history between two timestamps. Returns the report id; Trading212 prepares the file asynchronously. Every data category is included unless switched off."),
			mcplib.WithReadOnlyHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("timeFrom",
				mcplib.Description("Start of the export window, RFC 3339 (e.g. 2024-01-01T00:00:00Z)"),
				mcplib.Required(),
			),
			mcplib.WithString("timeTo",
				mcplib.Description("End of the export window, RFC 3339"),
				mcplib.Required(),
			),
			mcplib.WithBoolean("includeOrders",
				mcplib.Description("Include order history"),
				mcplib.DefaultBool(true),
			),
			mcplib.WithBoolean("includeDividends",
				mcplib.Description("Include dividend payments"),
				mcplib.DefaultBool(true),
			),
			mcplib.WithBoolean("includeInterest",
				mcplib.Description("Include interest payments"),
				mcplib.DefaultBool(true),
			),
			mcplib.WithBoolean("includeTransactions",
				mcplib.Description("Include cash transactions"),
				mcplib.DefaultBool(true),
			),
		),
		s.toolExport,
	)
}

func (s *Server) toolOrderHistory(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	q := t212.Query{
		Cursor: bag.optionalCursor("cursor"),
		Limit:  bag.optionalPositiveInt("limit"),
	}
	if ticker, ok := bag.optionalString("ticker"); ok && ticker != "" {
		q.Ticker = &ticker
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.OrderHistory(ctx, q)
}

func (s *Server) toolDividends(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	q := t212.Query{
		Cursor: bag.optionalCursor("cursor"),
		Limit:  bag.optionalPositiveInt("limit"),
	}
	if ticker, ok := bag.optionalString("ticker"); ok && ticker != "" {
		q.Ticker = &ticker
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.Dividends(ctx, q)
}

func (s *Server) toolTransactions(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	q := t212.Query{
		Cursor: bag.optionalCursor("cursor"),
		Limit:  bag.optionalPositiveInt("limit"),
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.Transactions(ctx, q)
}

func (s *Server) toolExport(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	req := t212.ExportRequest{
		TimeFrom: bag.requireTimestamp("timeFrom"),
		TimeTo:   bag.requireTimestamp("timeTo"),
		DataIncluded: t212.ExportDataIncluded{
			IncludeOrders:       bag.optionalBool("includeOrders", true),
			IncludeDividends:    bag.optionalBool("includeDividends", true),
			IncludeInterest:     bag.optionalBool("includeInterest", true),
			IncludeTransactions: bag.optionalBool("includeTransactions", true),
		},
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.RequestExport(ctx, req)
}
