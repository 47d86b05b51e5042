package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

func (s *Server) registerOrderTools() {
	// t212_orders: all pending orders.
	s.register(
		mcplib.NewTool("t212_orders",
			mcplib.WithDescription("List every pending (unfilled) order on the account."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolOrders,
	)

	// t212_order: one pending order by id.
	s.register(
		mcplib.NewTool("t212_order",
			mcplib.WithDescription("Fetch a single pending order by its numeric id."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("id",
				mcplib.Description("Order id as returned by t212_orders or an order placement tool"),
				mcplib.Required(),
			),
		),
		s.toolOrder,
	)

	// t212_cancel_order: cancel a pending order.
	s.register(
		mcplib.NewTool("t212_cancel_order",
			mcplib.WithDescription("Cancel a pending order by its numeric id. Orders that already filled cannot be cancelled."),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithNumber("id",
				mcplib.Description("Id of the pending order to cancel"),
				mcplib.Required(),
			),
		),
		s.toolCancelOrder,
	)

	// t212_place_market_order: buy or sell at the current market price.
	s.register(
		mcplib.NewTool("t212_place_market_order",
			mcplib.WithDescription(`Place a market order for the given number of shares at the current market price.

In live mode this trades real money. Verify the ticker with t212_search_instruments and the available cash with t212_account_cash before placing.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("ticker",
				mcplib.Description("Trading212 instrument ticker, e.g. AAPL_US_EQ"),
				mcplib.Required(),
			),
			mcplib.WithNumber("quantity",
				mcplib.Description("Number of shares. Must be strictly positive; fractional quantities are allowed where the instrument supports them."),
				mcplib.Required(),
			),
			mcplib.WithString("timeValidity",
				mcplib.Description("How long the order stays active"),
				mcplib.Enum("DAY", "GOOD_TILL_CANCEL"),
				mcplib.DefaultString("DAY"),
			),
		),
		s.toolPlaceMarketOrder,
	)

	// t212_place_limit_order: execute at limitPrice or better.
	s.register(
		mcplib.NewTool("t212_place_limit_order",
			mcplib.WithDescription("Place a limit order that executes at the limit price or better. In live mode this trades real money."),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("ticker",
				mcplib.Description("Trading212 instrument ticker, e.g. AAPL_US_EQ"),
				mcplib.Required(),
			),
			mcplib.WithNumber("quantity",
				mcplib.Description("Number of shares, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithNumber("limitPrice",
				mcplib.Description("Limit price in the instrument's currency, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithString("timeValidity",
				mcplib.Description("How long the order stays active"),
				mcplib.Enum("DAY", "GOOD_TILL_CANCEL"),
				mcplib.DefaultString("DAY"),
			),
		),
		s.toolPlaceLimitOrder,
	)

	// t212_place_stop_order: becomes a market order once stopPrice trades.
	s.register(
		mcplib.NewTool("t212_place_stop_order",
			mcplib.WithDescription("Place a stop order that becomes a market order once the stop price trades. In live mode this trades real money."),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("ticker",
				mcplib.Description("Trading212 instrument ticker, e.g. AAPL_US_EQ"),
				mcplib.Required(),
			),
			mcplib.WithNumber("quantity",
				mcplib.Description("Number of shares, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithNumber("stopPrice",
				mcplib.Description("Stop trigger price in the instrument's currency, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithString("timeValidity",
				mcplib.Description("How long the order stays active"),
				mcplib.Enum("DAY", "GOOD_TILL_CANCEL"),
				mcplib.DefaultString("DAY"),
			),
		),
		s.toolPlaceStopOrder,
	)

	// t212_place_stop_limit_order: stop trigger plus limit execution.
	s.register(
		mcplib.NewTool("t212_place_stop_limit_order",
			mcplib.WithDescription("Place a stop-limit order: once the stop price trades, a limit order at the limit price is entered. In live mode this trades real money."),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("ticker",
				mcplib.Description("Trading212 instrument ticker, e.g. AAPL_US_EQ"),
				mcplib.Required(),
			),
			mcplib.WithNumber("quantity",
				mcplib.Description("Number of shares, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithNumber("limitPrice",
				mcplib.Description("Limit price in the instrument's currency, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithNumber("stopPrice",
				mcplib.Description("Stop trigger price in the instrument's currency, strictly positive"),
				mcplib.Required(),
			),
			mcplib.WithString("timeValidity",
				mcplib.Description("How long the order stays active"),
				mcplib.Enum("DAY", "GOOD_TILL_CANCEL"),
				mcplib.DefaultString("DAY"),
			),
		),
		s.toolPlaceStopLimitOrder,
	)
}

func (s *Server) toolOrders(ctx context.Context, args map[string]any) (any, error) {
	orders, err := s.client.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"orders": orders, "total": len(orders)}, nil
}

func (s *Server) toolOrder(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	id := bag.requireID("id")
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.Order(ctx, id)
}

func (s *Server) toolCancelOrder(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	id := bag.requireID("id")
	if err := bag.err(); err != nil {
		return nil, err
	}
	if err := s.client.CancelOrder(ctx, id); err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "status": "cancelled"}, nil
}

func (s *Server) toolPlaceMarketOrder(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	req := t212.MarketOrderRequest{
		Ticker:       bag.requireString("ticker"),
		Quantity:     bag.requirePositive("quantity"),
		TimeValidity: bag.timeValidity("timeValidity"),
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.PlaceMarketOrder(ctx, req)
}

func (s *Server) toolPlaceLimitOrder(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	req := t212.LimitOrderRequest{
		Ticker:       bag.requireString("ticker"),
		Quantity:     bag.requirePositive("quantity"),
		LimitPrice:   bag.requirePositive("limitPrice"),
		TimeValidity: bag.timeValidity("timeValidity"),
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.PlaceLimitOrder(ctx, req)
}

func (s *Server) toolPlaceStopOrder(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	req := t212.StopOrderRequest{
		Ticker:       bag.requireString("ticker"),
		Quantity:     bag.requirePositive("quantity"),
		StopPrice:    bag.requirePositive("stopPrice"),
		TimeValidity: bag.timeValidity("timeValidity"),
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.PlaceStopOrder(ctx, req)
}

func (s *Server) toolPlaceStopLimitOrder(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	req := t212.StopLimitOrderRequest{
		Ticker:       bag.requireString("ticker"),
		Quantity:     bag.requirePositive("quantity"),
		LimitPrice:   bag.requirePositive("limitPrice"),
		StopPrice:    bag.requirePositive("stopPrice"),
		TimeValidity: bag.timeValidity("timeValidity"),
	}
	if err := bag.err(); err != nil {
		return nil, err
	}
	return s.client.PlaceStopLimitOrder(ctx, req)
}
