package models

import (
	"iter"

	"github.com/rotisserie/eris"
)

// LegOptions lists the candidate origins, destinations and dates for one leg.
type LegOptions struct {
	Origins      []string `json:"origins" yaml:"origins"`
	Destinations []string `json:"destinations" yaml:"destinations"`
	Dates        []Date   `json:"dates" yaml:"dates"`
}

// Count is the number of concrete legs the options expand to.
func (o LegOptions) Count() int {
	return len(o.Origins) * len(o.Destinations) * len(o.Dates)
}

// Legs yields origin x destination x date in that nesting order.
func (o LegOptions) Legs() iter.Seq[LegSearch] {
	return func(yield func(LegSearch) bool) {
		for _, origin := range o.Origins {
			for _, destination := range o.Destinations {
				for _, d := range o.Dates {
					if !yield(LegSearch{Origin: origin, Destination: destination, Date: d}) {
						return
					}
				}
			}
		}
	}
}

func (o LegOptions) legList() []LegSearch {
	legs := make([]LegSearch, 0, o.Count())
	for l := range o.Legs() {
		legs = append(legs, l)
	}
	return legs
}

// SearchOptions is a named search template. Every combination of its leg
// options becomes one SearchRequest carrying the template's shared settings.
type SearchOptions struct {
	Name       string       `json:"name" yaml:"name"`
	Legs       []LegOptions `json:"legs" yaml:"legs"`
	Passengers Passengers   `json:"passengers" yaml:"passengers"`
	Currency   string       `json:"currency" yaml:"currency"`
	Seat       SeatType     `json:"seat" yaml:"seat"`
	Filters    Filters      `json:"filters,omitempty" yaml:"filters,omitempty"`
}

func (o *SearchOptions) Validate() error {
	if len(o.Legs) == 0 {
		return eris.Wrapf(ErrNoLegs, "options %q", o.Name)
	}
	return nil
}

// Count returns the product of every leg's combination count.
func (o *SearchOptions) Count() int {
	if len(o.Legs) == 0 {
		return 0
	}
	n := 1
	for _, l := range o.Legs {
		n *= l.Count()
	}
	return n
}

// Searches returns the cartesian product of the leg options as a lazy
// sequence. The sequence can be ranged over any number of times and every
// request it yields owns its leg slice.
func (o *SearchOptions) Searches() (iter.Seq[*SearchRequest], error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	perLeg := make([][]LegSearch, len(o.Legs))
	for i, l := range o.Legs {
		perLeg[i] = l.legList()
	}

	return func(yield func(*SearchRequest) bool) {
		idx := make([]int, len(perLeg))
		for _, legs := range perLeg {
			if len(legs) == 0 {
				return
			}
		}

		for {
			legs := make([]LegSearch, len(perLeg))
			for i, choice := range idx {
				legs[i] = perLeg[i][choice]
			}
			req := &SearchRequest{
				Legs:       legs,
				Passengers: o.Passengers,
				Currency:   o.Currency,
				Seat:       o.Seat,
				Filters:    o.Filters,
			}
			if !yield(req) {
				return
			}

			// advance the rightmost leg first, like an odometer
			pos := len(idx) - 1
			for pos >= 0 {
				idx[pos]++
				if idx[pos] < len(perLeg[pos]) {
					break
				}
				idx[pos] = 0
				pos--
			}
			if pos < 0 {
				return
			}
		}
	}, nil
}
