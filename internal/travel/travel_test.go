package travel

import (
	"context"
	"errors"
	"net/url"
	"testing"

	agentErrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	got  url.Values
	data map[string]any
	err  error
}

func (f *fakeSearcher) Search(ctx context.Context, params url.Values) (map[string]any, error) {
	f.got = params
	return f.data, f.err
}

var usLocale = Locale{Language: "en", Country: "us", Currency: "USD", Stops: "1"}

func TestFlightValues(t *testing.T) {
	p := NewFlightSearch()
	p.DepartureAirport = "sfo"
	p.ArrivalAirport = "JFK"
	p.OutboundDate = "2024-06-22"
	p.Adults = 2

	v := p.Values(usLocale)
	assert.Equal(t, "google_flights", v.Get("engine"))
	assert.Equal(t, "SFO", v.Get("departure_id"))
	assert.Equal(t, "JFK", v.Get("arrival_id"))
	assert.Equal(t, "2", v.Get("adults"))
	assert.Equal(t, "0", v.Get("children"))
	assert.Equal(t, "1", v.Get("stops"))
	assert.Equal(t, "USD", v.Get("currency"))
	_, hasReturn := v["return_date"]
	assert.False(t, hasReturn)
}

func TestHotelValuesOmitOptionalFilters(t *testing.T) {
	h := NewHotelSearch()
	h.Q = "Paris"
	h.CheckInDate = "2024-06-22"
	h.CheckOutDate = "2024-06-28"

	v := h.Values(usLocale)
	assert.Equal(t, "google_hotels", v.Get("engine"))
	assert.Equal(t, "1", v.Get("rooms"))
	assert.Equal(t, "1", v.Get("adults"))
	_, hasSort := v["sort_by"]
	assert.False(t, hasSort)

	h.HotelClass = "4,5"
	assert.Equal(t, "4,5", h.Values(usLocale).Get("hotel_class"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewFlightSearch().Validate())

	bad := NewFlightSearch()
	bad.OutboundDate = "22/06/2024"
	assert.ErrorIs(t, bad.Validate(), agentErrors.ErrInvalidInput)

	backwards := NewFlightSearch()
	backwards.OutboundDate = "2024-06-28"
	backwards.ReturnDate = "2024-06-22"
	assert.Error(t, backwards.Validate())

	negative := NewFlightSearch()
	negative.Children = -1
	assert.Error(t, negative.Validate())

	h := NewHotelSearch()
	err := h.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q is required")

	h.Q = "Rome"
	h.CheckInDate = "2024-06-22"
	h.CheckOutDate = "2024-06-22"
	assert.Error(t, h.Validate())
	h.CheckOutDate = "2024-06-25"
	assert.NoError(t, h.Validate())
}

func TestValidate_ReportsFirstBadFieldInOrder(t *testing.T) {
	f := NewFlightSearch()
	f.OutboundDate = "tomorrow"
	f.ReturnDate = "next week"
	f.Adults = -1
	f.InfantsOnLap = -2
	for i := 0; i < 20; i++ {
		assert.Contains(t, f.Validate().Error(), "outbound_date must be YYYY-MM-DD")
	}

	f.OutboundDate, f.ReturnDate = "", ""
	for i := 0; i < 20; i++ {
		assert.Contains(t, f.Validate().Error(), "adults must not be negative")
	}

	h := NewHotelSearch()
	h.Q, h.CheckInDate, h.CheckOutDate = "Rome", "2024-06-22", "2024-06-25"
	h.Children, h.Rooms = -1, -1
	for i := 0; i < 20; i++ {
		assert.Contains(t, h.Validate().Error(), "children must not be negative")
	}
}

func TestFinderWithoutSearcherReturnsMissingKey(t *testing.T) {
	f := NewFinder(nil, usLocale, 5)
	assert.False(t, f.Available())

	res := f.FindFlights(context.Background(), NewFlightSearch())
	msg, isErr := res.Err()
	assert.True(t, isErr)
	assert.Equal(t, MissingKeyMessage, msg)

	_, isErr = f.FindHotels(context.Background(), NewHotelSearch()).Err()
	assert.True(t, isErr)
}

func TestFindFlightsReturnsBestFlights(t *testing.T) {
	s := &fakeSearcher{data: map[string]any{"best_flights": []any{map[string]any{"price": 199.0}}, "other_flights": []any{1, 2}}}
	f := NewFinder(s, usLocale, 5)

	res := f.FindFlights(context.Background(), NewFlightSearch())
	assert.Equal(t, Result{"flights": []any{map[string]any{"price": 199.0}}}, res)
	assert.Equal(t, "google_flights", s.got.Get("engine"))

	s.data = map[string]any{}
	assert.Equal(t, Result{"flights": []any{}}, f.FindFlights(context.Background(), NewFlightSearch()))
}

func TestFindHotelsCapsResults(t *testing.T) {
	props := make([]any, 8)
	for i := range props {
		props[i] = map[string]any{"name": i}
	}
	f := NewFinder(&fakeSearcher{data: map[string]any{"properties": props}}, usLocale, 0)

	res := f.FindHotels(context.Background(), NewHotelSearch())
	hotels := res["hotels"].([]any)
	assert.Len(t, hotels, 5)
}

func TestFinderProviderErrorBecomesResult(t *testing.T) {
	f := NewFinder(&fakeSearcher{err: errors.New("Google Flights hasn't returned any results")}, usLocale, 5)
	msg, isErr := f.FindFlights(context.Background(), NewFlightSearch()).Err()
	assert.True(t, isErr)
	assert.Equal(t, "Google Flights hasn't returned any results", msg)
}
