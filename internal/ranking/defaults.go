package ranking

var (
	DefaultTimeBands = []TimeBand{
		{Start: 9, End: 22, Value: 1},
		{Start: 22, End: 0, Value: 0.5},
		{Start: 7, End: 9, Value: 0.5},
	}
	DefaultPreferredAirlines = []string{"Air France", "Delta", "KLM"}
	DefaultDislikedAirlines  = []string{"Qatar Airways"}
)

// DefaultProperties is the reference scoring: cheap and short first, with a
// nudge for civilised hours and familiar airlines.
func DefaultProperties() []Property {
	return []Property{
		NewPriceProperty(3),
		NewLayoverProperty(0.5),
		NewDurationProperty(2),
		NewTimeOfDayProperty(1, DefaultTimeBands...),
		NewAirlineProperty(1, DefaultPreferredAirlines, DefaultDislikedAirlines),
	}
}

// NewDefaultRanker builds a ranker from DefaultProperties plus extra. An extra
// property replaces the default of the same name in place; others are
// appended.
func NewDefaultRanker(extra ...Property) (*Ranker, error) {
	props := DefaultProperties()
	for _, e := range extra {
		replaced := false
		for i, p := range props {
			if p.Name() == e.Name() {
				props[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			props = append(props, e)
		}
	}
	return NewRanker(props...)
}
