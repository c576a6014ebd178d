package ranking

import (
	"github.com/rotisserie/eris"
)

// PropertyConfig is the document form of a property. Weight and Inverted
// override the property's defaults when set.
type PropertyConfig struct {
	Type       string             `json:"type" yaml:"type" mapstructure:"type"`
	Weight     *float64           `json:"weight,omitempty" yaml:"weight,omitempty" mapstructure:"weight"`
	Inverted   *bool              `json:"inverted,omitempty" yaml:"inverted,omitempty" mapstructure:"inverted"`
	TimeBands  []TimeBand         `json:"time_bands,omitempty" yaml:"time_bands,omitempty" mapstructure:"time_bands"`
	Preferred  []string           `json:"preferred,omitempty" yaml:"preferred,omitempty" mapstructure:"preferred"`
	Disliked   []string           `json:"disliked,omitempty" yaml:"disliked,omitempty" mapstructure:"disliked"`
	StopValues map[string]float64 `json:"stop_values,omitempty" yaml:"stop_values,omitempty" mapstructure:"stop_values"`
}

func (c PropertyConfig) Build() (Property, error) {
	weight := 1.0
	if c.Weight != nil {
		weight = *c.Weight
	}

	var p Property
	switch c.Type {
	case NamePrice:
		p = NewPriceProperty(weight)
	case NameLayovers:
		p = NewLayoverProperty(weight)
	case NameDuration:
		p = NewDurationProperty(weight)
	case NameTimeOfDay:
		bands := c.TimeBands
		if len(bands) == 0 {
			bands = DefaultTimeBands
		}
		p = NewTimeOfDayProperty(weight, bands...)
	case NameAirline:
		preferred, disliked := c.Preferred, c.Disliked
		if preferred == nil && disliked == nil {
			preferred, disliked = DefaultPreferredAirlines, DefaultDislikedAirlines
		}
		p = NewAirlineProperty(weight, preferred, disliked)
	case NameStops:
		p = NewStopProperty(weight, c.StopValues)
	default:
		return nil, eris.Errorf("unknown ranking property %q", c.Type)
	}

	if c.Inverted != nil && *c.Inverted != p.Inverted() {
		p = withOverrides{Property: p, weight: p.Weight(), inverted: *c.Inverted}
	}
	return p, nil
}

// FromConfig builds a ranker from configured properties, in order. No
// configuration means the default ranker.
func FromConfig(configs []PropertyConfig) (*Ranker, error) {
	if len(configs) == 0 {
		return NewDefaultRanker()
	}
	props := make([]Property, 0, len(configs))
	for i, c := range configs {
		p, err := c.Build()
		if err != nil {
			return nil, eris.Wrapf(err, "ranking property %d", i)
		}
		props = append(props, p)
	}
	return NewRanker(props...)
}
