package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/rotisserie/eris"
)

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrNoLegs           ValidationError = "search must have at least one leg"
	ErrNoTickets        ValidationError = "hop must have at least one ticket"
	ErrNoHops           ValidationError = "flight must have at least one hop"
	ErrNoFlights        ValidationError = "trip must have at least one flight"
	ErrCurrencyMismatch ValidationError = "currency mismatch"
	ErrUnknownSeatType  ValidationError = "unknown seat type"
	ErrInvalidDate      ValidationError = "invalid date"
	ErrNoAdults         ValidationError = "at least one adult passenger is required"
	ErrInvalidFilter    ValidationError = "invalid filter"
)

type Passengers struct {
	Adults        int `json:"adults" yaml:"adults"`
	Children      int `json:"children" yaml:"children"`
	InfantsInSeat int `json:"infants_in_seat" yaml:"infants_in_seat"`
	InfantsOnLap  int `json:"infants_on_lap" yaml:"infants_on_lap"`
}

func (p Passengers) Total() int {
	return p.Adults + p.Children + p.InfantsInSeat + p.InfantsOnLap
}

// Key identifies a passenger mix; equal mixes produce equal keys.
func (p Passengers) Key() string {
	return fmt.Sprintf("%d/%d/%d/%d", p.Adults, p.Children, p.InfantsInSeat, p.InfantsOnLap)
}

func (p Passengers) Validate() error {
	if p.Adults <= 0 {
		return ErrNoAdults
	}
	return nil
}

const DateLayout = "2006-01-02"

// Date is a calendar day without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, eris.Wrapf(ErrInvalidDate, "%q", s)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// Matches reports whether t falls on d in t's own location.
func (d Date) Matches(t time.Time) bool {
	return DateOf(t) == d
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange returns every day from start to end inclusive.
func DateRange(start, end Date) []Date {
	var dates []Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

type LegSearch struct {
	Origin      string `json:"origin" yaml:"origin"`
	Destination string `json:"destination" yaml:"destination"`
	Date        Date   `json:"date" yaml:"date"`
}

func (l LegSearch) String() string {
	return fmt.Sprintf("%s->%s on %s", l.Origin, l.Destination, l.Date)
}

// SearchRequest is one concrete itinerary search: an ordered list of legs
// plus the settings shared by all of them.
type SearchRequest struct {
	Legs       []LegSearch `json:"legs" yaml:"legs"`
	Passengers Passengers  `json:"passengers" yaml:"passengers"`
	Currency   string      `json:"currency" yaml:"currency"`
	Seat       SeatType    `json:"seat" yaml:"seat"`
	Filters    Filters     `json:"filters,omitempty" yaml:"filters,omitempty"`
}

func NewSearchRequest(req SearchRequest) (*SearchRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *SearchRequest) Validate() error {
	if len(r.Legs) == 0 {
		return eris.Wrap(ErrNoLegs, "search request")
	}
	return nil
}

func (r *SearchRequest) Journey() JourneyType {
	jumps := make([]Jump, len(r.Legs))
	for i, l := range r.Legs {
		jumps[i] = Jump{Origin: l.Origin, Destination: l.Destination}
	}
	return InferJourney(jumps...)
}

func (r *SearchRequest) Origin() string {
	return r.Legs[0].Origin
}

func (r *SearchRequest) Destination() string {
	return r.Legs[len(r.Legs)-1].Destination
}

// Stops lists the airports visited by the request, collapsing a leg origin
// that repeats the previous leg's destination.
func (r *SearchRequest) Stops() []string {
	var stops []string
	for i, l := range r.Legs {
		if i == 0 || l.Origin != r.Legs[i-1].Destination {
			stops = append(stops, l.Origin)
		}
		stops = append(stops, l.Destination)
	}
	return stops
}

func (r *SearchRequest) Dates() []Date {
	dates := make([]Date, len(r.Legs))
	for i, l := range r.Legs {
		dates[i] = l.Date
	}
	return dates
}

// Clone copies the legs so restrictions can mutate them freely. Filters are
// shared, they hold configuration only.
func (r *SearchRequest) Clone() *SearchRequest {
	c := *r
	c.Legs = slices.Clone(r.Legs)
	c.Filters = slices.Clone(r.Filters)
	return &c
}

// CacheKey hashes everything that changes what a provider returns. Filters
// are applied after collection and are left out.
func (r *SearchRequest) CacheKey() string {
	keyData := struct {
		Legs       []LegSearch
		Passengers string
		Currency   string
		Seat       SeatType
	}{
		Legs:       r.Legs,
		Passengers: r.Passengers.Key(),
		Currency:   r.Currency,
		Seat:       r.Seat,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "search:" + hex.EncodeToString(hash[:])
}
