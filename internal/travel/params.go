package travel

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	agentErrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
)

const dateLayout = "2006-01-02"

// FlightSearch is the flights_finder input. Every field is optional; counts
// default to one adult and no children or infants.
type FlightSearch struct {
	DepartureAirport string `json:"departure_airport,omitempty" mapstructure:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport,omitempty" mapstructure:"arrival_airport"`
	OutboundDate     string `json:"outbound_date,omitempty" mapstructure:"outbound_date"`
	ReturnDate       string `json:"return_date,omitempty" mapstructure:"return_date"`
	Adults           int    `json:"adults" mapstructure:"adults"`
	Children         int    `json:"children" mapstructure:"children"`
	InfantsInSeat    int    `json:"infants_in_seat" mapstructure:"infants_in_seat"`
	InfantsOnLap     int    `json:"infants_on_lap" mapstructure:"infants_on_lap"`
}

// HotelSearch is the hotels_finder input. Q and both dates are required.
type HotelSearch struct {
	Q            string `json:"q" mapstructure:"q"`
	CheckInDate  string `json:"check_in_date" mapstructure:"check_in_date"`
	CheckOutDate string `json:"check_out_date" mapstructure:"check_out_date"`
	SortBy       string `json:"sort_by,omitempty" mapstructure:"sort_by"`
	Adults       int    `json:"adults" mapstructure:"adults"`
	Children     int    `json:"children" mapstructure:"children"`
	Rooms        int    `json:"rooms" mapstructure:"rooms"`
	HotelClass   string `json:"hotel_class,omitempty" mapstructure:"hotel_class"`
}

// NewFlightSearch returns the defaults that decoded arguments are laid over.
func NewFlightSearch() FlightSearch {
	return FlightSearch{Adults: 1}
}

func NewHotelSearch() HotelSearch {
	return HotelSearch{Adults: 1, Rooms: 1}
}

func (f FlightSearch) Validate() error {
	if err := validateDate("outbound_date", f.OutboundDate, false); err != nil {
		return err
	}
	if err := validateDate("return_date", f.ReturnDate, false); err != nil {
		return err
	}
	if f.OutboundDate != "" && f.ReturnDate != "" && f.ReturnDate < f.OutboundDate {
		return agentErrors.InvalidInput("return_date is before outbound_date")
	}
	return validateCounts(
		count{"adults", f.Adults}, count{"children", f.Children},
		count{"infants_in_seat", f.InfantsInSeat}, count{"infants_on_lap", f.InfantsOnLap},
	)
}

func (h HotelSearch) Validate() error {
	if strings.TrimSpace(h.Q) == "" {
		return agentErrors.InvalidInput("q is required")
	}
	if err := validateDate("check_in_date", h.CheckInDate, true); err != nil {
		return err
	}
	if err := validateDate("check_out_date", h.CheckOutDate, true); err != nil {
		return err
	}
	if h.CheckOutDate <= h.CheckInDate {
		return agentErrors.InvalidInput("check_out_date must be after check_in_date")
	}
	return validateCounts(count{"adults", h.Adults}, count{"children", h.Children}, count{"rooms", h.Rooms})
}

func validateDate(name, value string, required bool) error {
	if value == "" {
		if required {
			return agentErrors.InvalidInput(name + " is required")
		}
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return agentErrors.InvalidInput(fmt.Sprintf("%s must be YYYY-MM-DD, got %q", name, value))
	}
	return nil
}

type count struct {
	name string
	n    int
}

// validateCounts reports the first negative count in argument order.
func validateCounts(counts ...count) error {
	for _, c := range counts {
		if c.n < 0 {
			return agentErrors.InvalidInput(fmt.Sprintf("%s must not be negative", c.name))
		}
	}
	return nil
}

// Locale holds the fixed query parameters sent with every search.
type Locale struct {
	Language string
	Country  string
	Currency string
	Stops    string
}

func (f FlightSearch) Values(l Locale) url.Values {
	v := url.Values{}
	v.Set("engine", "google_flights")
	v.Set("hl", l.Language)
	v.Set("gl", l.Country)
	v.Set("currency", l.Currency)
	v.Set("stops", l.Stops)
	setIfNotEmpty(v, "departure_id", strings.ToUpper(strings.TrimSpace(f.DepartureAirport)))
	setIfNotEmpty(v, "arrival_id", strings.ToUpper(strings.TrimSpace(f.ArrivalAirport)))
	setIfNotEmpty(v, "outbound_date", f.OutboundDate)
	setIfNotEmpty(v, "return_date", f.ReturnDate)
	v.Set("adults", strconv.Itoa(f.Adults))
	v.Set("children", strconv.Itoa(f.Children))
	v.Set("infants_in_seat", strconv.Itoa(f.InfantsInSeat))
	v.Set("infants_on_lap", strconv.Itoa(f.InfantsOnLap))
	return v
}

func (h HotelSearch) Values(l Locale) url.Values {
	v := url.Values{}
	v.Set("engine", "google_hotels")
	v.Set("hl", l.Language)
	v.Set("gl", l.Country)
	v.Set("currency", l.Currency)
	v.Set("q", h.Q)
	v.Set("check_in_date", h.CheckInDate)
	v.Set("check_out_date", h.CheckOutDate)
	v.Set("adults", strconv.Itoa(h.Adults))
	v.Set("children", strconv.Itoa(h.Children))
	v.Set("rooms", strconv.Itoa(h.Rooms))
	setIfNotEmpty(v, "sort_by", h.SortBy)
	setIfNotEmpty(v, "hotel_class", h.HotelClass)
	return v
}

func setIfNotEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
