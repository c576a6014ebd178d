package ranking

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

var (
	ErrNoProperties      = eris.New("ranker needs at least one property")
	ErrDuplicateProperty = eris.New("duplicate ranking property")
	ErrInvalidWeight     = eris.New("ranking weights must be non-negative and not all zero")
)

// Ranker scores a batch of trips against an ordered set of properties. Scores
// are relative to the batch: every property is min-max normalized over all
// flights of all trips before weighting.
type Ranker struct {
	properties []Property
	weightSum  float64
}

func NewRanker(props ...Property) (*Ranker, error) {
	if len(props) == 0 {
		return nil, ErrNoProperties
	}
	seen := make(map[string]bool, len(props))
	var sum float64
	for _, p := range props {
		if seen[p.Name()] {
			return nil, eris.Wrapf(ErrDuplicateProperty, "property %q", p.Name())
		}
		seen[p.Name()] = true
		if p.Weight() < 0 {
			return nil, eris.Wrapf(ErrInvalidWeight, "property %q weight %v", p.Name(), p.Weight())
		}
		sum += p.Weight()
	}
	if sum == 0 {
		return nil, ErrInvalidWeight
	}
	return &Ranker{properties: props, weightSum: sum}, nil
}

func (r *Ranker) Properties() []Property {
	out := make([]Property, len(r.properties))
	copy(out, r.properties)
	return out
}

// span tracks the observed range of one property across a batch.
type span struct {
	min, max float64
	seen     bool
}

func (s *span) observe(v float64) {
	if !s.seen {
		s.min, s.max, s.seen = v, v, true
		return
	}
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

func (s span) normalize(v float64) float64 {
	if s.max == s.min {
		return 0
	}
	return (v - s.min) / (s.max - s.min)
}

// Score computes the score of every result, in input order.
func (r *Ranker) Score(results []models.QueryResult) []models.ScoreInfo {
	infos := make([]models.ScoreInfo, len(results))
	for i := range infos {
		infos[i].Breakdown = make([]models.PropertyScore, len(r.properties))
	}

	for p, prop := range r.properties {
		raw := make([][]float64, len(results))
		var s span
		for i, res := range results {
			raw[i] = make([]float64, len(res.Trip.Flights))
			for j, f := range res.Trip.Flights {
				v := prop.Apply(f)
				if prop.Inverted() {
					v = -v
				}
				raw[i][j] = v
				s.observe(v)
			}
		}

		for i, values := range raw {
			var mean float64
			if len(values) > 0 {
				for _, v := range values {
					mean += s.normalize(v)
				}
				mean /= float64(len(values))
			}
			infos[i].Breakdown[p] = models.PropertyScore{Property: prop.Name(), Value: mean}
			infos[i].Score += mean * prop.Weight()
		}
	}

	for i := range infos {
		infos[i].Score /= r.weightSum
	}
	return infos
}

// Rank scores the batch and orders it best first. Ties keep their input
// order and Rank is the position in the returned slice.
func (r *Ranker) Rank(results []models.QueryResult) []models.ScoredQueryResult {
	infos := r.Score(results)
	scored := make([]models.ScoredQueryResult, len(results))
	for i, res := range results {
		scored[i] = models.ScoredQueryResult{Query: res, Score: infos[i]}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[j].Score.Less(scored[i].Score)
	})
	for i := range scored {
		scored[i].Rank = i
	}
	return scored
}
