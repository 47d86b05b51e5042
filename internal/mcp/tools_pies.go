package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

func (s *Server) registerPieTools() {
	// t212_pies: all investment pies.
	s.register(
		mcplib.NewTool("t212_pies",
			mcplib.WithDescription("List every investment pie on the account with its cash, progress, and dividend totals."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolPies,
	)

	// t212_pie: one pie with its slices and settings.
	s.register(
		mcplib.NewTool("t212_pie",
			mcplib.WithDescription("Fetch a single pie by id, including its instrument slices and settings."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("id",
				mcplib.Description("Pie id as returned by t212_pies"),
				mcplib.Required(),
			),
		),
		s.toolPie,
	)

	// t212_create_pie: new pie from a ticker/weight mapping.
	s.register(
		mcplib.NewTool("t212_create_pie",
			mcplib.WithDescription(`Create an investment pie. instrumentShares maps tickers to target weights, e.g. {"AAPL_US_EQ": 0.5, "MSFT_US_EQ": 0.5}; weights must be strictly positive and should sum to 1. In live mode this changes the real account.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("name",
				mcplib.Description("Display name for the pie"),
				mcplib.Required(),
			),
			mcplib.WithString("icon",
				mcplib.Description("Icon name shown in the Trading212 app, e.g. Coins or PiggyBank"),
				mcplib.Required(),
			),
			mcplib.WithString("dividendCashAction",
				mcplib.Description("What happens to dividends paid into the pie"),
				mcplib.Enum("REINVEST", "TO_ACCOUNT_CASH"),
				mcplib.Required(),
			),
			mcplib.WithObject("instrumentShares",
				mcplib.Description("Mapping of instrument ticker to target share weight"),
				mcplib.Required(),
			),
			mcplib.WithNumber("goal",
				mcplib.Description("Optional target value for the pie, strictly positive"),
			),
		),
		s.toolCreatePie,
	)

	// t212_update_pie: change an existing pie; only supplied fields change.
	s.register(
		mcplib.NewTool("t212_update_pie",
			mcplib.WithDescription("Update an existing pie. Only the supplied fields are sent; everything except the id is optional. In live mode this changes the real account."),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("id",
				mcplib.Description("Id of the pie to update"),
				mcplib.Required(),
			),
			mcplib.WithString("name",
				mcplib.Description("New display name"),
			),
			mcplib.WithString("icon",
				mcplib.Description("New icon name"),
			),
			mcplib.WithString("dividendCashAction",
				mcplib.Description("New dividend handling"),
				mcplib.Enum("REINVEST", "TO_ACCOUNT_CASH"),
			),
			mcplib.WithObject("instrumentShares",
				mcplib.Description("Replacement mapping of instrument ticker to target share weight"),
			),
			mcplib.WithNumber("goal",
				mcplib.Description("New target value, strictly positive"),
			),
		),
		s.toolUpdatePie,
	)

	// t212_delete_pie: remove a pie.
	s.register(
		mcplib.NewTool("t212_delete_pie",
			mcplib.WithDescription("Delete a pie by id. The pie's holdings move back to the general portfolio. In live mode this changes the real account."),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("id",
				mcplib.Description("Id of the pie to delete"),
				mcplib.Required(),
			),
		),
		s.toolDeletePie,
	)
}

func (s *Server) toolPies(ctx context.Context, args map[string]any) (any, error) {
	pies, err := s.client.Pies(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"pies": pies, "total": len(pies)}, nil
}

func (s *Server) toolPie(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	id := bag.requireID("id")
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.Pie(ctx, id)
}

func (s *Server) toolCreatePie(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	req := t212.PieRequest{
		Name:               bag.requireString("name"),
		Icon:               bag.requireString("icon"),
		DividendCashAction: bag.requireDividendAction("dividendCashAction"),
		InstrumentShares:   bag.requireShares("instrumentShares"),
	}
	if goal, ok := bag.optionalPositive("goal"); ok {
		req.Goal = &goal
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.CreatePie(ctx, req)
}

func (s *Server) toolUpdatePie(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	id := bag.requireID("id")

	var req t212.PieRequest
	if name, ok := bag.optionalString("name"); ok {
		req.Name = name
	}
	if icon, ok := bag.optionalString("icon"); ok {
		req.Icon = icon
	}
	if action, ok := bag.optionalDividendAction("dividendCashAction"); ok {
		req.DividendCashAction = action
	}
	req.InstrumentShares = bag.optionalShares("instrumentShares")
	if goal, ok := bag.optionalPositive("goal"); ok {
		req.Goal = &goal
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.UpdatePie(ctx, id, req)
}

func (s *Server) toolDeletePie(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	id := bag.requireID("id")
	if err := bag.err(); err != nil {
		return nil, err
	}
	if err := s.client.DeletePie(ctx, id); err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "status": "deleted"}, nil
}
