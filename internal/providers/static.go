package providers

import (
	"context"
	"encoding/json"
	"iter"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

type staticFixture struct {
	Trips []*models.Trip `json:"trips"`
}

// StaticProvider answers searches from a fixed set of trips, typically a JSON
// fixture. A trip matches a request when its flights line up with the legs:
// same count, and each flight leaves the leg origin on the leg date and lands
// at the leg destination.
type StaticProvider struct {
	name       string
	trips      []*models.Trip
	currencies []string
	maxLegs    int
}

type StaticOption func(*StaticProvider)

// WithCurrencies restricts eligibility to requests in one of currencies.
func WithCurrencies(currencies ...string) StaticOption {
	return func(p *StaticProvider) { p.currencies = currencies }
}

func WithMaxLegs(n int) StaticOption {
	return func(p *StaticProvider) { p.maxLegs = n }
}

func NewStaticProvider(name string, trips []*models.Trip, opts ...StaticOption) (*StaticProvider, error) {
	for i, t := range trips {
		if err := t.Validate(); err != nil {
			return nil, eris.Wrapf(err, "%s fixture trip %d", name, i)
		}
		for _, f := range t.Flights {
			for j := range f.Hops {
				f.Hops[j].SortTickets()
			}
		}
	}
	p := &StaticProvider{name: name, trips: trips}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func LoadStaticProvider(name, path string, opts ...StaticOption) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read fixture %s", path)
	}
	return ParseStaticProvider(name, data, opts...)
}

func ParseStaticProvider(name string, data []byte, opts ...StaticOption) (*StaticProvider, error) {
	var fixture staticFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, eris.Wrapf(err, "decode %s fixture", name)
	}
	return NewStaticProvider(name, fixture.Trips, opts...)
}

func (p *StaticProvider) Name() string {
	return p.name
}

func (p *StaticProvider) IsEligible(req *models.SearchRequest) bool {
	return eligible(req, p.currencies, p.maxLegs)
}

func (p *StaticProvider) Initialize(ctx context.Context) error { return nil }

func (p *StaticProvider) Release() error { return nil }

func (p *StaticProvider) Collect(ctx context.Context, req *models.SearchRequest) iter.Seq2[*models.Trip, error] {
	return func(yield func(*models.Trip, error) bool) {
		for _, t := range p.trips {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !matches(t, req) {
				continue
			}
			if !yield(t.Clone(), nil) {
				return
			}
		}
	}
}

func matches(t *models.Trip, req *models.SearchRequest) bool {
	if len(t.Flights) != len(req.Legs) {
		return false
	}
	for i, leg := range req.Legs {
		f := t.Flights[i]
		if !strings.EqualFold(f.Origin(), leg.Origin) ||
			!strings.EqualFold(f.Destination(), leg.Destination) ||
			!leg.Date.Matches(f.DepartureTime()) {
			return false
		}
	}
	return true
}

func eligible(req *models.SearchRequest, currencies []string, maxLegs int) bool {
	if maxLegs > 0 && len(req.Legs) > maxLegs {
		return false
	}
	if len(currencies) == 0 {
		return true
	}
	for _, c := range currencies {
		if strings.EqualFold(c, req.Currency) {
			return true
		}
	}
	return false
}
