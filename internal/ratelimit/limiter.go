// Package ratelimit keeps one token bucket per provider so concurrent plan
// queries never exceed what a provider allows.
package ratelimit

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

type ProviderLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// Unlimited reports whether the config disables limiting.
func (c RateLimitConfig) Unlimited() bool {
	return c.RequestsPerSecond <= 0
}

func (c RateLimitConfig) limiter() *rate.Limiter {
	if c.Unlimited() {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := c.BurstSize
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
	}
}

func NewProviderLimiter(config RateLimitConfig) *ProviderLimiter {
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func NewProviderLimiterWithDefaults() *ProviderLimiter {
	return NewProviderLimiter(DefaultConfig())
}

func (p *ProviderLimiter) GetLimiter(provider string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[provider]
	p.mu.RUnlock()

	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists = p.limiters[provider]; exists {
		return limiter
	}

	limiter = p.defaults.limiter()
	p.limiters[provider] = limiter
	return limiter
}

func (p *ProviderLimiter) SetProviderLimit(provider string, config RateLimitConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.limiters[provider] = config.limiter()
}

// Wait blocks until the provider may issue another request or ctx is done.
func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	if err := p.GetLimiter(provider).Wait(ctx); err != nil {
		return eris.Wrapf(err, "rate limit %s", provider)
	}
	return nil
}
