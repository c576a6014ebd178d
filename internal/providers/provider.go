package providers

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

// Provider is a source of trips. A provider is a stateful resource: callers
// Initialize it before Collect and Release it afterwards, normally through
// WithSession.
type Provider interface {
	Name() string
	// IsEligible reports, without side effects, whether the provider can
	// serve req at all.
	IsEligible(req *models.SearchRequest) bool
	Initialize(ctx context.Context) error
	Release() error
	// Collect streams the trips answering req. A non-nil error ends the
	// stream.
	Collect(ctx context.Context, req *models.SearchRequest) iter.Seq2[*models.Trip, error]
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

var sessions sync.Map // provider name -> *sync.Mutex

func sessionLock(name string) *sync.Mutex {
	mu, _ := sessions.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// WithSession runs fn between Initialize and Release. Sessions of the same
// provider are serialised. Release runs on every path once Initialize has
// succeeded, including a panic in fn, which is returned as an error.
func WithSession(ctx context.Context, p Provider, fn func(Provider) error) (err error) {
	mu := sessionLock(p.Name())
	mu.Lock()
	defer mu.Unlock()

	if err := p.Initialize(ctx); err != nil {
		return NewProviderError(p.Name(), eris.Wrap(err, "initialize"))
	}
	defer func() {
		if r := recover(); r != nil {
			err = NewProviderError(p.Name(), eris.New(fmt.Sprintf("panic: %v", r)))
		}
		if rerr := p.Release(); rerr != nil && err == nil {
			err = NewProviderError(p.Name(), eris.Wrap(rerr, "release"))
		}
	}()

	return fn(p)
}

// Collect gathers the whole stream of p for req inside a session. Trips
// yielded before a failure are discarded with it.
func Collect(ctx context.Context, p Provider, req *models.SearchRequest) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := WithSession(ctx, p, func(p Provider) error {
		for trip, err := range p.Collect(ctx, req) {
			if err != nil {
				return NewProviderError(p.Name(), err)
			}
			trips = append(trips, trip)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trips, nil
}
