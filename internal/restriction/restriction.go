// Package restriction holds the per-provider rules that trim or veto a
// planned query before it is dispatched.
package restriction

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

// Restriction inspects a planned query and returns it, possibly with legs
// removed, or reports a veto with ok == false.
type Restriction interface {
	Name() string
	Restrict(q *models.PlannedQuery) (out *models.PlannedQuery, ok bool)
}

// Chain applies restrictions in order. Each restriction sees the output of
// the previous one.
type Chain []Restriction

// Apply stops at the first veto; restrictions after it never run.
func (c Chain) Apply(q *models.PlannedQuery) (*models.PlannedQuery, bool) {
	for _, r := range c {
		var ok bool
		if q, ok = r.Restrict(q); !ok {
			return nil, false
		}
	}
	return q, true
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[strings.ToUpper(v)] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[strings.ToUpper(v)]
	return ok
}

// providerSet keeps provider names case sensitive, they are identifiers.
type providerSet map[string]struct{}

func newProviderSet(names []string) providerSet {
	s := make(providerSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s providerSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// LegRestriction drops the legs a set of providers cannot serve. A leg is
// dropped when its origin is in Origins and its destination in Destinations.
// The query is vetoed when no legs remain.
type LegRestriction struct {
	providers    providerSet
	origins      set
	destinations set
}

func NewLegRestriction(providers, origins, destinations []string) *LegRestriction {
	return &LegRestriction{
		providers:    newProviderSet(providers),
		origins:      newSet(origins),
		destinations: newSet(destinations),
	}
}

func (r *LegRestriction) Name() string { return TypeLeg }

func (r *LegRestriction) Restrict(q *models.PlannedQuery) (*models.PlannedQuery, bool) {
	if !r.providers.has(q.Provider) {
		return q, true
	}
	q.Search.Legs = slices.DeleteFunc(q.Search.Legs, func(l models.LegSearch) bool {
		return r.origins.has(l.Origin) && r.destinations.has(l.Destination)
	})
	if len(q.Search.Legs) == 0 {
		return nil, false
	}
	return q, true
}

// JourneyRestriction vetoes whole journeys for a set of providers, matching
// the request's overall origin and destination.
type JourneyRestriction struct {
	providers    providerSet
	origins      set
	destinations set
}

func NewJourneyRestriction(providers, origins, destinations []string) *JourneyRestriction {
	return &JourneyRestriction{
		providers:    newProviderSet(providers),
		origins:      newSet(origins),
		destinations: newSet(destinations),
	}
}

func (r *JourneyRestriction) Name() string { return TypeJourney }

func (r *JourneyRestriction) Restrict(q *models.PlannedQuery) (*models.PlannedQuery, bool) {
	if r.providers.has(q.Provider) &&
		r.origins.has(q.Search.Origin()) &&
		r.destinations.has(q.Search.Destination()) {
		return nil, false
	}
	return q, true
}

const (
	TypeLeg     = "leg"
	TypeJourney = "journey"
)

// Config is the document form of a restriction.
type Config struct {
	Type         string   `json:"type" yaml:"type" mapstructure:"type"`
	Providers    []string `json:"providers" yaml:"providers" mapstructure:"providers"`
	Origins      []string `json:"origins" yaml:"origins" mapstructure:"origins"`
	Destinations []string `json:"destinations" yaml:"destinations" mapstructure:"destinations"`
}

func (c Config) Build() (Restriction, error) {
	switch c.Type {
	case TypeLeg:
		return NewLegRestriction(c.Providers, c.Origins, c.Destinations), nil
	case TypeJourney:
		return NewJourneyRestriction(c.Providers, c.Origins, c.Destinations), nil
	default:
		return nil, eris.Errorf("unknown restriction type %q", c.Type)
	}
}

// BuildChain builds restrictions in document order.
func BuildChain(configs []Config) (Chain, error) {
	chain := make(Chain, 0, len(configs))
	for i, c := range configs {
		r, err := c.Build()
		if err != nil {
			return nil, eris.Wrapf(err, "restriction %d", i)
		}
		chain = append(chain, r)
	}
	return chain, nil
}
