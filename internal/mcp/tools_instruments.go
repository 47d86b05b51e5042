package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

func (s *Server) registerInstrumentTools() {
	// t212_search_instruments: tradeable universe, filtered in memory.
	s.register(
		mcplib.NewTool("t212_search_instruments",
			mcplib.WithDescription(`Search the tradeable instrument universe by free text. The query matches case-insensitively against ticker, name, short name, and ISIN; an empty or omitted query returns everything.

A query matching nothing returns an empty list, not an error.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("query",
				mcplib.Description("Free-text filter, e.g. a company name, ticker fragment, or ISIN"),
			),
		),
		s.toolSearchInstruments,
	)

	// t212_exchanges: exchanges and their trading schedules.
	s.register(
		mcplib.NewTool("t212_exchanges",
			mcplib.WithDescription("List every exchange Trading212 trades on, with their working schedules."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.toolExchanges,
	)
}

// toolSearchInstruments fetches the full universe and filters it here; the
// downstream API has no server-side search.
func (s *Server) toolSearchInstruments(ctx context.Context, args map[string]any) (any, error) {
	bag := newArgBag(args)
	query, _ := bag.optionalString("query")
	if err := bag.err(); err != nil {
		return nil, err
	}

	instruments, err := s.client.Instruments(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]t212.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if inst.Matches(query) {
			matches = append(matches, inst)
		}
	}
	return map[string]any{"instruments": matches, "total": len(matches)}, nil
}

func (s *Server) toolExchanges(ctx context.Context, args map[string]any) (any, error) {
	exchanges, err := s.client.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"exchanges": exchanges, "total": len(exchanges)}, nil
}
