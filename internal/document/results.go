package document

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/internal/planner"
	"github.com/dharmasatrya/flightplanner/internal/ranking"
)

// Results is the output document of a plan run.
type Results struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Stats       *planner.Stats      `json:"stats,omitempty" yaml:"stats,omitempty"`
	Results     []models.PlanResult `json:"results" yaml:"results"`
}

func NewResults(results []models.PlanResult, stats *planner.Stats) *Results {
	return &Results{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Stats:       stats,
		Results:     results,
	}
}

func ParseResults(r io.Reader) (*Results, error) {
	var res Results
	if err := yaml.NewDecoder(r).Decode(&res); err != nil {
		return nil, eris.Wrap(err, "decode results")
	}
	return &res, nil
}

func LoadResults(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open results %s", path)
	}
	defer f.Close()
	return ParseResults(f)
}

func EncodeResults(w io.Writer, res *Results) error {
	return encode(w, res)
}

func SaveResults(path string, res *Results) error {
	return save(path, res)
}

// Rerank scores a finished run again with the given ranking properties. An
// empty list uses the default ranker.
func Rerank(res *Results, props []ranking.PropertyConfig) (*Results, error) {
	ranker, err := ranking.FromConfig(props)
	if err != nil {
		return nil, err
	}
	p, err := planner.New(nil, planner.WithRanker(ranker))
	if err != nil {
		return nil, err
	}
	return NewResults(p.Rerank(res.Results), res.Stats), nil
}

// Combine replaces one provider's results in base with that provider's
// results from extra, group by group, matching groups by name. Groups only
// present in extra are appended. Scores are carried over as they were and
// ranks follow the new order, so the output is meant to be reranked.
func Combine(base, extra *Results, provider string) *Results {
	byName := make(map[string]models.PlanResult, len(extra.Results))
	for _, g := range extra.Results {
		byName[g.Name] = g
	}

	out := NewResults(nil, nil)
	used := make(map[string]bool, len(base.Results))
	for _, g := range base.Results {
		merged := fromProvider(byName[g.Name].Results, provider, true)
		merged = append(merged, fromProvider(g.Results, provider, false)...)
		out.Results = append(out.Results, models.PlanResult{Name: g.Name, Results: reindex(merged)})
		used[g.Name] = true
	}
	for _, g := range extra.Results {
		if used[g.Name] {
			continue
		}
		out.Results = append(out.Results, models.PlanResult{
			Name:    g.Name,
			Results: reindex(fromProvider(g.Results, provider, true)),
		})
	}
	return out
}

func fromProvider(results []models.ScoredQueryResult, provider string, keep bool) []models.ScoredQueryResult {
	var out []models.ScoredQueryResult
	for _, r := range results {
		if (r.Provider() == provider) == keep {
			out = append(out, r)
		}
	}
	return out
}

func reindex(results []models.ScoredQueryResult) []models.ScoredQueryResult {
	for i := range results {
		results[i].Rank = i
	}
	if results == nil {
		return []models.ScoredQueryResult{}
	}
	return results
}
