package travel

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/serpapi"
)

// MissingKeyMessage is returned in the error result when no SerpAPI key is configured.
const MissingKeyMessage = "SERPAPI_API_KEY environment variable is not set."

// Result is either {"flights": [...]}, {"hotels": [...]} or {"error": "..."}.
type Result map[string]any

func (r Result) Err() (string, bool) {
	msg, ok := r["error"].(string)
	return msg, ok
}

func errorResult(msg string) Result {
	return Result{"error": msg}
}

type Searcher interface {
	Search(ctx context.Context, params url.Values) (map[string]any, error)
}

// Finder runs flight and hotel searches. A nil searcher means the provider is
// not configured; every search then yields the missing-key error result.
type Finder struct {
	searcher  Searcher
	locale    Locale
	maxHotels int
}

func NewFinder(searcher Searcher, locale Locale, maxHotels int) *Finder {
	if maxHotels <= 0 {
		maxHotels = config.DefaultSerpAPIMaxHotels
	}
	return &Finder{searcher: searcher, locale: locale, maxHotels: maxHotels}
}

// NewFinderFromConfig builds the SerpAPI-backed finder.
func NewFinderFromConfig(cfg config.SerpAPIConfig) (*Finder, error) {
	timeout, err := config.DurationOrDefault(cfg.Timeout, config.DefaultSerpAPITimeout)
	if err != nil {
		return nil, err
	}

	var searcher Searcher
	if client := serpapi.NewClient(cfg.BaseURL, cfg.APIKey, timeout); client != nil {
		searcher = client
	} else {
		slog.Warn("SerpAPI key not configured; flight and hotel searches will return an error result")
	}

	return NewFinder(searcher, Locale{
		Language: cfg.Language,
		Country:  cfg.Country,
		Currency: cfg.Currency,
		Stops:    cfg.Stops,
	}, cfg.MaxHotels), nil
}

func (f *Finder) Available() bool {
	return f.searcher != nil
}

func (f *Finder) FindFlights(ctx context.Context, params FlightSearch) Result {
	if f.searcher == nil {
		return errorResult(MissingKeyMessage)
	}
	data, err := f.searcher.Search(ctx, params.Values(f.locale))
	if err != nil {
		return errorResult(err.Error())
	}
	flights, ok := data["best_flights"].([]any)
	if !ok {
		flights = []any{}
	}
	return Result{"flights": flights}
}

func (f *Finder) FindHotels(ctx context.Context, params HotelSearch) Result {
	if f.searcher == nil {
		return errorResult(MissingKeyMessage)
	}
	data, err := f.searcher.Search(ctx, params.Values(f.locale))
	if err != nil {
		return errorResult(err.Error())
	}
	hotels, ok := data["properties"].([]any)
	if !ok {
		hotels = []any{}
	}
	if len(hotels) > f.maxHotels {
		hotels = hotels[:f.maxHotels]
	}
	return Result{"hotels": hotels}
}
