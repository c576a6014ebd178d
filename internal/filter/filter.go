package filter

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

const (
	KindStops         = "stops"
	KindLuggage       = "luggage"
	KindPrice         = "price"
	KindDepartureTime = "departure_time"
	KindArrivalTime   = "arrival_time"
	KindDuration      = "duration"
	KindAirline       = "airline"
)

func init() {
	models.RegisterFilter(KindStops, func() models.ResultFilter { return &StopsFilter{} })
	models.RegisterFilter(KindLuggage, func() models.ResultFilter { return &LuggageFilter{CarryOn: 1} })
	models.RegisterFilter(KindPrice, func() models.ResultFilter { return &PriceFilter{Currency: "EUR"} })
	models.RegisterFilter(KindDepartureTime, func() models.ResultFilter { return &DepartureTimeFilter{} })
	models.RegisterFilter(KindArrivalTime, func() models.ResultFilter { return &ArrivalTimeFilter{} })
	models.RegisterFilter(KindDuration, func() models.ResultFilter { return &DurationFilter{} })
	models.RegisterFilter(KindAirline, func() models.ResultFilter { return &AirlineFilter{} })
}

// All evaluates every filter against every flight of the trip, filter-major,
// and stops at the first rejection. Filters run in order, so a pruning filter
// is visible to the ones after it.
func All(filters []models.ResultFilter, trip *models.Trip) (bool, error) {
	for _, f := range filters {
		for _, flight := range trip.Flights {
			ok, err := f.Filter(flight)
			if err != nil {
				return false, eris.Wrapf(err, "filter %s", f.Kind())
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// StopsFilter rejects flights with more layovers than Max.
type StopsFilter struct {
	Max int `json:"stops" yaml:"stops"`
}

func (f *StopsFilter) Kind() string { return KindStops }

func (f *StopsFilter) Filter(flight *models.Flight) (bool, error) {
	return len(flight.Layovers()) <= f.Max, nil
}

// LuggageFilter prunes every hop's tickets down to those carrying at least
// the requested bags. The flight is rejected as soon as a hop has nothing
// left.
type LuggageFilter struct {
	Checked int `json:"checked" yaml:"checked"`
	CarryOn int `json:"carryon" yaml:"carryon"`
}

func (f *LuggageFilter) Kind() string { return KindLuggage }

func (f *LuggageFilter) Filter(flight *models.Flight) (bool, error) {
	for i := range flight.Hops {
		hop := &flight.Hops[i]
		kept := hop.Tickets[:0]
		for _, t := range hop.Tickets {
			if t.CheckedBags >= f.Checked && t.CarryOnBags >= f.CarryOn {
				kept = append(kept, t)
			}
		}
		hop.Tickets = kept
		if len(hop.Tickets) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// PriceFilter bounds the flight's cheapest total price. Prices are only
// comparable in the filter's currency.
type PriceFilter struct {
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Currency string  `json:"currency" yaml:"currency"`
}

func (f *PriceFilter) Kind() string { return KindPrice }

func (f *PriceFilter) Validate() error {
	if f.Max <= 0 {
		return eris.Wrap(models.ErrInvalidFilter, "price filter needs a positive max")
	}
	if f.Min > f.Max {
		return eris.Wrapf(models.ErrInvalidFilter, "price filter min %.2f above max %.2f", f.Min, f.Max)
	}
	return nil
}

func (f *PriceFilter) Filter(flight *models.Flight) (bool, error) {
	if f.Currency != flight.Currency() {
		return false, eris.Wrapf(models.ErrCurrencyMismatch, "price filter %s != %s", f.Currency, flight.Currency())
	}
	price := flight.Cheapest()
	return f.Min <= price && price <= f.Max, nil
}

// Clock is a time of day with minute precision, encoded as "15:04".
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, eris.Wrapf(err, "parse time of day %q", s)
	}
	return ClockOf(t), nil
}

func (c Clock) String() string {
	return time.Date(0, 1, 1, int(c)/60, int(c)%60, 0, 0, time.UTC).Format("15:04")
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DepartureTimeFilter keeps flights leaving between Min and Max local time,
// bounds inclusive.
type DepartureTimeFilter struct {
	Min Clock `json:"min" yaml:"min"`
	Max Clock `json:"max" yaml:"max"`
}

func (f *DepartureTimeFilter) Kind() string { return KindDepartureTime }

func (f *DepartureTimeFilter) Validate() error {
	return validateWindow(KindDepartureTime, f.Min, f.Max)
}

func (f *DepartureTimeFilter) Filter(flight *models.Flight) (bool, error) {
	c := ClockOf(flight.DepartureTime())
	return f.Min <= c && c <= f.Max, nil
}

type ArrivalTimeFilter struct {
	Min Clock `json:"min" yaml:"min"`
	Max Clock `json:"max" yaml:"max"`
}

func (f *ArrivalTimeFilter) Kind() string { return KindArrivalTime }

func (f *ArrivalTimeFilter) Validate() error {
	return validateWindow(KindArrivalTime, f.Min, f.Max)
}

func validateWindow(kind string, lo, hi Clock) error {
	if lo > hi {
		return eris.Wrapf(models.ErrInvalidFilter, "%s filter min %s after max %s", kind, lo, hi)
	}
	return nil
}

func (f *ArrivalTimeFilter) Filter(flight *models.Flight) (bool, error) {
	c := ClockOf(flight.ArrivalTime())
	return f.Min <= c && c <= f.Max, nil
}

// DurationFilter bounds the door-to-door duration, in whole minutes.
type DurationFilter struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

func (f *DurationFilter) Kind() string { return KindDuration }

func (f *DurationFilter) Validate() error {
	if f.Min > f.Max {
		return eris.Wrapf(models.ErrInvalidFilter, "duration filter min %d above max %d", f.Min, f.Max)
	}
	return nil
}

func (f *DurationFilter) Filter(flight *models.Flight) (bool, error) {
	mins := int(flight.Duration() / time.Minute)
	return f.Min <= mins && mins <= f.Max, nil
}

// AirlineFilter keeps flights whose every hop is operated by one of the
// listed airlines.
type AirlineFilter struct {
	Airlines []string `json:"airlines" yaml:"airlines"`
}

func (f *AirlineFilter) Kind() string { return KindAirline }

func (f *AirlineFilter) Filter(flight *models.Flight) (bool, error) {
	for _, h := range flight.Hops {
		found := false
		for _, airline := range f.Airlines {
			if strings.EqualFold(h.Airline, airline) {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}
