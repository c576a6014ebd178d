// Package document reads and writes the YAML documents the planner works
// with: search plans going in and ranked results coming out.
package document

import (
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	// registers the result filter kinds used by plan documents
	_ "github.com/dharmasatrya/flightplanner/internal/filter"
	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/internal/planner"
	"github.com/dharmasatrya/flightplanner/internal/providers"
	"github.com/dharmasatrya/flightplanner/internal/ranking"
	"github.com/dharmasatrya/flightplanner/internal/restriction"
)

// Plan is a search plan: the option templates to expand, the providers to
// ask, and how to restrict and rank.
type Plan struct {
	Options      []*models.SearchOptions  `json:"options" yaml:"options"`
	Providers    []string                 `json:"providers,omitempty" yaml:"providers,omitempty"`
	Restrictions []restriction.Config     `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
	Ranking      []ranking.PropertyConfig `json:"ranking,omitempty" yaml:"ranking,omitempty"`
	Concurrency  int                      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

func (p *Plan) Validate() error {
	if len(p.Options) == 0 {
		return eris.New("plan has no options")
	}
	names := make(map[string]bool, len(p.Options))
	for i, o := range p.Options {
		if o == nil {
			return eris.Errorf("plan option %d is empty", i)
		}
		if err := o.Validate(); err != nil {
			return err
		}
		if names[o.Name] {
			return eris.Errorf("duplicate option name %q", o.Name)
		}
		names[o.Name] = true
	}
	return nil
}

func ParsePlan(r io.Reader) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, eris.Wrap(err, "decode plan")
	}
	if err := p.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid plan")
	}
	return &p, nil
}

func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open plan %s", path)
	}
	defer f.Close()
	return ParsePlan(f)
}

func EncodePlan(w io.Writer, p *Plan) error {
	return encode(w, p)
}

func SavePlan(path string, p *Plan) error {
	return save(path, p)
}

// Engine builds a planner for the plan. Providers are picked from available
// by name, in plan order; a plan naming none uses all of them.
func Engine(p *Plan, available []providers.Provider, opts ...planner.Option) (*planner.Planner, error) {
	selected := available
	if len(p.Providers) > 0 {
		byName := make(map[string]providers.Provider, len(available))
		for _, pr := range available {
			byName[pr.Name()] = pr
		}
		selected = make([]providers.Provider, 0, len(p.Providers))
		for _, name := range p.Providers {
			pr, ok := byName[name]
			if !ok {
				return nil, eris.Errorf("plan names unknown provider %q", name)
			}
			selected = append(selected, pr)
		}
	}

	chain, err := restriction.BuildChain(p.Restrictions)
	if err != nil {
		return nil, err
	}
	ranker, err := ranking.FromConfig(p.Ranking)
	if err != nil {
		return nil, err
	}

	all := []planner.Option{planner.WithRestrictions(chain), planner.WithRanker(ranker)}
	if p.Concurrency > 0 {
		all = append(all, planner.WithConcurrency(p.Concurrency))
	}
	all = append(all, opts...)

	zap.L().Debug("document: engine ready",
		zap.Int("providers", len(selected)),
		zap.Int("restrictions", len(chain)),
		zap.Int("properties", len(ranker.Properties())),
	)
	return planner.New(selected, all...)
}

func encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

// save writes through a temp file so a failed encode never truncates an
// existing document.
func save(path string, v any) error {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "rename %s", tmp)
	}
	return nil
}
