package ranking

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

// Property scores a single flight. Inverted properties are negated before
// normalization, so a lower raw value ranks higher.
type Property interface {
	Name() string
	Weight() float64
	Inverted() bool
	Apply(f *models.Flight) float64
}

const (
	NamePrice     = "price"
	NameLayovers  = "layovers"
	NameDuration  = "duration"
	NameTimeOfDay = "time_of_day"
	NameAirline   = "airline"
	NameStops     = "stops"
)

type base struct {
	weight   float64
	inverted bool
}

func (b base) Weight() float64 { return b.weight }
func (b base) Inverted() bool   { return b.inverted }

type PriceProperty struct{ base }

func NewPriceProperty(weight float64) *PriceProperty {
	return &PriceProperty{base{weight: weight, inverted: true}}
}

func (p *PriceProperty) Name() string { return NamePrice }

func (p *PriceProperty) Apply(f *models.Flight) float64 {
	return f.Cheapest()
}

type LayoverProperty struct{ base }

func NewLayoverProperty(weight float64) *LayoverProperty {
	return &LayoverProperty{base{weight: weight, inverted: true}}
}

func (p *LayoverProperty) Name() string { return NameLayovers }

func (p *LayoverProperty) Apply(f *models.Flight) float64 {
	return float64(len(f.Layovers()))
}

// DurationProperty scores door-to-door time in minutes.
type DurationProperty struct{ base }

func NewDurationProperty(weight float64) *DurationProperty {
	return &DurationProperty{base{weight: weight, inverted: true}}
}

func (p *DurationProperty) Name() string { return NameDuration }

func (p *DurationProperty) Apply(f *models.Flight) float64 {
	return f.Duration().Minutes()
}

// TimeBand assigns Value to hours in [Start, End). A band with Start > End
// wraps past midnight.
type TimeBand struct {
	Start int     `json:"start" yaml:"start" mapstructure:"start"`
	End   int     `json:"end" yaml:"end" mapstructure:"end"`
	Value float64 `json:"value" yaml:"value" mapstructure:"value"`
}

func (b TimeBand) Contains(hour int) bool {
	switch {
	case b.Start < b.End:
		return b.Start <= hour && hour < b.End
	case b.Start > b.End:
		return hour >= b.Start || hour < b.End
	default:
		return false
	}
}

// TimeOfDayProperty averages the band values of the departure and arrival
// hours. The first matching band wins; unmatched hours score 0.
type TimeOfDayProperty struct {
	base
	bands []TimeBand
}

func NewTimeOfDayProperty(weight float64, bands ...TimeBand) *TimeOfDayProperty {
	return &TimeOfDayProperty{base: base{weight: weight}, bands: bands}
}

func (p *TimeOfDayProperty) Name() string { return NameTimeOfDay }

func (p *TimeOfDayProperty) Apply(f *models.Flight) float64 {
	return (p.score(f.DepartureTime()) + p.score(f.ArrivalTime())) / 2
}

func (p *TimeOfDayProperty) score(t time.Time) float64 {
	for _, b := range p.bands {
		if b.Contains(t.Hour()) {
			return b.Value
		}
	}
	return 0
}

// AirlineProperty adds 1 when any hop flies a preferred airline and
// subtracts 1 when any hop flies a disliked one.
type AirlineProperty struct {
	base
	preferred []string
	disliked  []string
}

func NewAirlineProperty(weight float64, preferred, disliked []string) *AirlineProperty {
	return &AirlineProperty{base: base{weight: weight}, preferred: preferred, disliked: disliked}
}

func (p *AirlineProperty) Name() string { return NameAirline }

func (p *AirlineProperty) Apply(f *models.Flight) float64 {
	var v float64
	if anyAirline(f, p.preferred) {
		v++
	}
	if anyAirline(f, p.disliked) {
		v--
	}
	return v
}

func anyAirline(f *models.Flight, airlines []string) bool {
	for _, h := range f.Hops {
		if slices.ContainsFunc(airlines, func(a string) bool { return strings.EqualFold(a, h.Airline) }) {
			return true
		}
	}
	return false
}

// StopProperty sums the configured value of every airport on the route.
// Negative values penalise airports to avoid.
type StopProperty struct {
	base
	values map[string]float64
	keys   []string
}

func NewStopProperty(weight float64, values map[string]float64) *StopProperty {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &StopProperty{base: base{weight: weight}, values: values, keys: keys}
}

func (p *StopProperty) Name() string { return NameStops }

func (p *StopProperty) Apply(f *models.Flight) float64 {
	stops := f.Stops()
	var v float64
	for _, k := range p.keys {
		if slices.Contains(stops, k) {
			v += p.values[k]
		}
	}
	return v
}

// withOverrides wraps a property to change its weight or inversion without
// touching how it scores.
type withOverrides struct {
	Property
	weight   float64
	inverted bool
}

func (w withOverrides) Weight() float64 { return w.weight }
func (w withOverrides) Inverted() bool   { return w.inverted }
