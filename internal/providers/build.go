package providers

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/ratelimit"
)

const (
	TypeStatic = "static"
	TypeHTTP   = "http"
)

// Config describes one provider in the service configuration.
type Config struct {
	Name        string                     `mapstructure:"name" yaml:"name"`
	Type        string                     `mapstructure:"type" yaml:"type"`
	Path        string                     `mapstructure:"path" yaml:"path,omitempty"`
	URL         string                     `mapstructure:"url" yaml:"url,omitempty"`
	APIKey      string                     `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Headers     map[string]string          `mapstructure:"headers" yaml:"headers,omitempty"`
	Timeout     time.Duration              `mapstructure:"timeout" yaml:"timeout,omitempty"`
	MaxRetries  int                        `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	CheckedBags *int                       `mapstructure:"checked_bags" yaml:"checked_bags,omitempty"`
	CarryOnBags *int                       `mapstructure:"carryon_bags" yaml:"carryon_bags,omitempty"`
	Currencies  []string                   `mapstructure:"currencies" yaml:"currencies,omitempty"`
	MaxLegs     int                        `mapstructure:"max_legs" yaml:"max_legs,omitempty"`
	RateLimit   *ratelimit.RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit,omitempty"`
}

func Build(cfg Config, limiter *ratelimit.ProviderLimiter) (Provider, error) {
	if cfg.Name == "" {
		return nil, eris.New("provider name is required")
	}
	if limiter != nil && cfg.RateLimit != nil {
		limiter.SetProviderLimit(cfg.Name, *cfg.RateLimit)
	}

	switch cfg.Type {
	case TypeStatic:
		p, err := LoadStaticProvider(cfg.Name, cfg.Path, WithCurrencies(cfg.Currencies...), WithMaxLegs(cfg.MaxLegs))
		if err != nil {
			return nil, err
		}
		return p, nil
	case TypeHTTP:
		return NewHTTPProvider(HTTPConfig{
			Name:        cfg.Name,
			URL:         cfg.URL,
			APIKey:      cfg.APIKey,
			Headers:     cfg.Headers,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
			CheckedBags: cfg.CheckedBags,
			CarryOnBags: cfg.CarryOnBags,
			Currencies:  cfg.Currencies,
			MaxLegs:     cfg.MaxLegs,
		}, limiter), nil
	default:
		return nil, eris.Errorf("provider %s: unknown type %q", cfg.Name, cfg.Type)
	}
}

// BuildAll builds every configured provider. Names must be unique, they key
// restrictions and results.
func BuildAll(cfgs []Config, limiter *ratelimit.ProviderLimiter) ([]Provider, error) {
	seen := make(map[string]bool, len(cfgs))
	out := make([]Provider, 0, len(cfgs))
	for _, cfg := range cfgs {
		if seen[cfg.Name] {
			return nil, eris.Errorf("duplicate provider %q", cfg.Name)
		}
		seen[cfg.Name] = true

		p, err := Build(cfg, limiter)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
