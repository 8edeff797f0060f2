package builtin

import (
	"context"

	toolcore "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"
)

const FlightsToolName = "flights_finder"

func init() {
	toolcore.RegisterBuiltin(FlightsToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return NewFlightsTool(options.Finder), nil
	})
}

// NewFlightsTool searches Google Flights through finder. A nil finder behaves
// like an unconfigured provider.
func NewFlightsTool(finder *travel.Finder) toolcore.Tool {
	if finder == nil {
		finder = travel.NewFinder(nil, travel.Locale{}, 0)
	}
	return toolcore.NewTyped(
		FlightsToolName,
		"Find flights using the Google Flights engine. Returns the best flights for the route and dates.",
		flightsSchema,
		travel.NewFlightSearch,
		func(ctx context.Context, in travel.FlightSearch) (any, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			return finder.FindFlights(ctx, in), nil
		},
		toolcore.ToolMetadata{Source: "builtin", Capabilities: []string{"search", "network"}, Provider: "serpapi"},
	)
}

var flightsSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"departure_airport": map[string]interface{}{
			"type":        "string",
			"description": "Departure airport code (IATA)",
		},
		"arrival_airport": map[string]interface{}{
			"type":        "string",
			"description": "Arrival airport code (IATA)",
		},
		"outbound_date": map[string]interface{}{
			"type":        "string",
			"description": "Outbound date in YYYY-MM-DD format, e.g. 2024-06-22",
		},
		"return_date": map[string]interface{}{
			"type":        "string",
			"description": "Return date in YYYY-MM-DD format, e.g. 2024-06-28",
		},
		"adults": map[string]interface{}{
			"type":        "integer",
			"description": "Number of adults. Defaults to 1.",
		},
		"children": map[string]interface{}{
			"type":        "integer",
			"description": "Number of children. Defaults to 0.",
		},
		"infants_in_seat": map[string]interface{}{
			"type":        "integer",
			"description": "Number of infants in seat. Defaults to 0.",
		},
		"infants_on_lap": map[string]interface{}{
			"type":        "integer",
			"description": "Number of infants on lap. Defaults to 0.",
		},
	},
}
