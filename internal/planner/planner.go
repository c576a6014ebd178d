// Package planner runs search plans: it expands option templates into
// provider queries, collects and filters trips, and ranks each template's
// results as one batch.
package planner

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dharmasatrya/flightplanner/internal/filter"
	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/internal/providers"
	"github.com/dharmasatrya/flightplanner/internal/ranking"
	"github.com/dharmasatrya/flightplanner/internal/restriction"
)

type Planner struct {
	providers   []providers.Provider
	chain       restriction.Chain
	ranker      *ranking.Ranker
	logger      *zap.Logger
	concurrency int
}

type Option func(*Planner)

func WithRestrictions(chain restriction.Chain) Option {
	return func(p *Planner) { p.chain = chain }
}

func WithRanker(r *ranking.Ranker) Option {
	return func(p *Planner) { p.ranker = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithConcurrency bounds how many queries are in flight at once. Values
// below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(p *Planner) { p.concurrency = n }
}

func New(ps []providers.Provider, opts ...Option) (*Planner, error) {
	p := &Planner{
		providers:   ps,
		logger:      zap.L(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	if p.ranker == nil {
		r, err := ranking.NewDefaultRanker()
		if err != nil {
			return nil, eris.Wrap(err, "planner: default ranker")
		}
		p.ranker = r
	}
	return p, nil
}

func (p *Planner) Ranker() *ranking.Ranker {
	return p.ranker
}

// Stats counts what happened to the queries of a run.
type Stats struct {
	Planned         int           `json:"planned" yaml:"planned"`
	Ineligible      int           `json:"ineligible" yaml:"ineligible"`
	Vetoed          int           `json:"vetoed" yaml:"vetoed"`
	Failed          int           `json:"failed" yaml:"failed"`
	Collected       int           `json:"collected" yaml:"collected"`
	FilteredOut     int           `json:"filtered_out" yaml:"filtered_out"`
	FailedProviders []string      `json:"failed_providers,omitempty" yaml:"failed_providers,omitempty"`
	Elapsed         time.Duration `json:"elapsed" yaml:"elapsed"`
}

type tally struct {
	mu sync.Mutex
	Stats
}

func (t *tally) failed(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Failed++
	for _, name := range t.FailedProviders {
		if name == provider {
			return
		}
	}
	t.FailedProviders = append(t.FailedProviders, provider)
}

func (t *tally) collected(kept, dropped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Collected += kept + dropped
	t.FilteredOut += dropped
}

type dispatch struct {
	provider providers.Provider
	query    *models.PlannedQuery
}

func (p *Planner) plan(opts *models.SearchOptions, t *tally) (iter.Seq[dispatch], error) {
	searches, err := opts.Searches()
	if err != nil {
		return nil, err
	}
	return func(yield func(dispatch) bool) {
		for _, provider := range p.providers {
			for search := range searches {
				if !provider.IsEligible(search) {
					if t != nil {
						t.Ineligible++
					}
					continue
				}
				q, ok := p.chain.Apply(&models.PlannedQuery{Provider: provider.Name(), Search: search})
				if !ok {
					if t != nil {
						t.Vetoed++
					}
					continue
				}
				if t != nil {
					t.Planned++
				}
				if !yield(dispatch{provider: provider, query: q}) {
					return
				}
			}
		}
	}, nil
}

// Queries yields the queries a template would dispatch, provider by
// provider, in expansion order. Ineligible and vetoed queries are left out.
func (p *Planner) Queries(opts *models.SearchOptions) (iter.Seq[*models.PlannedQuery], error) {
	plan, err := p.plan(opts, nil)
	if err != nil {
		return nil, err
	}
	return func(yield func(*models.PlannedQuery) bool) {
		for d := range plan {
			if !yield(d.query) {
				return
			}
		}
	}, nil
}

type Report struct {
	Results []models.PlanResult
	Stats   Stats
}

// Search runs every template and returns one ranked result per template, in
// template order.
func (p *Planner) Search(ctx context.Context, options []*models.SearchOptions) ([]models.PlanResult, error) {
	report, err := p.Run(ctx, options)
	if err != nil {
		return nil, err
	}
	return report.Results, nil
}

// Run is Search with statistics. A failing provider query is logged and
// counts as empty; invalid templates and cancellation abort the run.
func (p *Planner) Run(ctx context.Context, options []*models.SearchOptions) (*Report, error) {
	start := time.Now()
	t := &tally{}
	results := make([]models.PlanResult, 0, len(options))

	for _, opts := range options {
		res, err := p.searchOptions(ctx, opts, t)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	t.Elapsed = time.Since(start)
	p.logger.Info("planner: run complete",
		zap.Int("templates", len(options)),
		zap.Int("queries", t.Planned),
		zap.Int("vetoed", t.Vetoed),
		zap.Int("ineligible", t.Ineligible),
		zap.Int("failed", t.Failed),
		zap.Int("trips", t.Collected-t.FilteredOut),
		zap.Duration("elapsed", t.Elapsed),
	)
	return &Report{Results: results, Stats: t.Stats}, nil
}

func (p *Planner) searchOptions(ctx context.Context, opts *models.SearchOptions, t *tally) (models.PlanResult, error) {
	plan, err := p.plan(opts, t)
	if err != nil {
		return models.PlanResult{}, eris.Wrapf(err, "planner: template %q", opts.Name)
	}

	var queue []dispatch
	for d := range plan {
		queue = append(queue, d)
	}

	log := p.logger.With(zap.String("template", opts.Name))
	log.Debug("planner: dispatching", zap.Int("queries", len(queue)))

	// One slot per query keeps the batch in plan order however the
	// queries finish.
	slots := make([][]models.QueryResult, len(queue))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, d := range queue {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.execute(gctx, d, t)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				t.failed(d.provider.Name())
				log.Warn("planner: query failed",
					zap.String("provider", d.provider.Name()),
					zap.Stringer("legs", legs(d.query.Search.Legs)),
					zap.String("search", d.query.Search.CacheKey()),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.PlanResult{}, eris.Wrapf(err, "planner: template %q", opts.Name)
	}

	var batch []models.QueryResult
	for _, s := range slots {
		batch = append(batch, s...)
	}

	return models.PlanResult{Name: opts.Name, Results: p.ranker.Rank(batch)}, nil
}

// execute collects one query and keeps the trips passing every filter.
func (p *Planner) execute(ctx context.Context, d dispatch, t *tally) ([]models.QueryResult, error) {
	trips, err := providers.Collect(ctx, d.provider, d.query.Search)
	if err != nil {
		return nil, err
	}

	kept, err := keep(d.provider.Name(), d.query.Search.Filters, trips)
	if err != nil {
		return nil, err
	}
	t.collected(len(kept), len(trips)-len(kept))
	p.logger.Debug("planner: query collected",
		zap.String("provider", d.provider.Name()),
		zap.String("search", d.query.Search.CacheKey()),
		zap.Int("trips", len(trips)),
		zap.Int("kept", len(kept)),
	)
	return kept, nil
}

// keep runs the filters over the trips. A filter error or panic fails the
// query like a provider failure would.
func keep(provider string, filters models.Filters, trips []*models.Trip) (kept []models.QueryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			kept = nil
			err = providers.NewProviderError(provider, eris.New(fmt.Sprintf("filter panic: %v", r)))
		}
	}()

	for _, trip := range trips {
		ok, err := filter.All(filters, trip)
		if err != nil {
			return nil, providers.NewProviderError(provider, err)
		}
		if ok {
			kept = append(kept, models.QueryResult{Provider: provider, Trip: trip})
		}
	}
	return kept, nil
}

// Rerank scores existing plan results again with the planner's ranker.
func (p *Planner) Rerank(results []models.PlanResult) []models.PlanResult {
	out := make([]models.PlanResult, len(results))
	for i, r := range results {
		out[i] = models.PlanResult{Name: r.Name, Results: p.ranker.Rank(r.Queries())}
	}
	return out
}

type legs []models.LegSearch

func (l legs) String() string {
	s := ""
	for i, leg := range l {
		if i > 0 {
			s += ", "
		}
		s += leg.String()
	}
	return s
}
