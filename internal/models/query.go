package models

// PlannedQuery is the unit dispatched to a provider.
type PlannedQuery struct {
	Provider string         `json:"provider" yaml:"provider"`
	Search   *SearchRequest `json:"search" yaml:"search"`
}

type QueryResult struct {
	Provider string `json:"provider" yaml:"provider"`
	Trip     *Trip  `json:"trip" yaml:"trip"`
}

// PropertyScore is one property's averaged, normalized contribution to a
// trip's score.
type PropertyScore struct {
	Property string  `json:"prop" yaml:"prop"`
	Value    float64 `json:"val" yaml:"val"`
}

type ScoreInfo struct {
	Score     float64         `json:"score" yaml:"score"`
	Breakdown []PropertyScore `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
}

func (s ScoreInfo) Less(other ScoreInfo) bool {
	return s.Score < other.Score
}

type ScoredQueryResult struct {
	Query QueryResult `json:"query" yaml:"query"`
	Score ScoreInfo   `json:"score" yaml:"score"`
	Rank  int         `json:"rank" yaml:"rank"`
}

func (r ScoredQueryResult) Provider() string {
	return r.Query.Provider
}

type PlanResult struct {
	Name    string              `json:"name" yaml:"name"`
	Results []ScoredQueryResult `json:"results" yaml:"results"`
}

// Queries strips the scores, leaving the results in their current order.
func (p PlanResult) Queries() []QueryResult {
	out := make([]QueryResult, len(p.Results))
	for i, r := range p.Results {
		out[i] = r.Query
	}
	return out
}
