package builtin

import (
	"context"

	toolcore "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"
)

const HotelsToolName = "hotels_finder"

func init() {
	toolcore.RegisterBuiltin(HotelsToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return NewHotelsTool(options.Finder), nil
	})
}

func NewHotelsTool(finder *travel.Finder) toolcore.Tool {
	if finder == nil {
		finder = travel.NewFinder(nil, travel.Locale{}, 0)
	}
	return toolcore.NewTyped(
		HotelsToolName,
		"Find hotels using the Google Hotels engine. Returns up to five properties.",
		hotelsSchema,
		travel.NewHotelSearch,
		func(ctx context.Context, in travel.HotelSearch) (any, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			return finder.FindHotels(ctx, in), nil
		},
		toolcore.ToolMetadata{Source: "builtin", Capabilities: []string{"search", "network"}, Provider: "serpapi"},
	)
}

var hotelsSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"q": map[string]interface{}{
			"type":        "string",
			"description": "Location of the hotel",
		},
		"check_in_date": map[string]interface{}{
			"type":        "string",
			"description": "Check-in date in YYYY-MM-DD format, e.g. 2024-06-22",
		},
		"check_out_date": map[string]interface{}{
			"type":        "string",
			"description": "Check-out date in YYYY-MM-DD format, e.g. 2024-06-28",
		},
		"sort_by": map[string]interface{}{
			"type":        "string",
			"description": "Sort order for the results. Defaults to highest rating.",
		},
		"adults": map[string]interface{}{
			"type":        "integer",
			"description": "Number of adults. Defaults to 1.",
		},
		"children": map[string]interface{}{
			"type":        "integer",
			"description": "Number of children. Defaults to 0.",
		},
		"rooms": map[string]interface{}{
			"type":        "integer",
			"description": "Number of rooms. Defaults to 1.",
		},
		"hotel_class": map[string]interface{}{
			"type":        "string",
			"description": "Only include these hotel classes, e.g. 2,3,4",
		},
	},
	"required": []string{"q", "check_in_date", "check_out_date"},
}
