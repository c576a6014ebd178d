package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/internal/ratelimit"
	"github.com/dharmasatrya/flightplanner/internal/timezone"
)

type HTTPConfig struct {
	Name        string
	URL         string
	APIKey      string
	Headers     map[string]string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	CheckedBags *int
	CarryOnBags *int
	Currencies  []string
	MaxLegs     int
}

func DefaultRetryDelays() []time.Duration {
	return []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}
}

// HTTPProvider queries a lowest-fare offers API. Every priced product of the
// response becomes one trip; a product's total price is carried by the
// ticket of its first hop.
type HTTPProvider struct {
	cfg         HTTPConfig
	checkedBags int
	carryOnBags int
	limiter     *ratelimit.ProviderLimiter
	logger      *zap.Logger
	client      *http.Client
}

// defaultBags is the allowance stamped on offers when the config leaves it
// unset.
const defaultBags = 1

func bagsOrDefault(n *int) int {
	if n == nil {
		return defaultBags
	}
	return *n
}

func NewHTTPProvider(cfg HTTPConfig, limiter *ratelimit.ProviderLimiter) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.RetryDelays) == 0 {
		cfg.RetryDelays = DefaultRetryDelays()
	}
	return &HTTPProvider{
		cfg:         cfg,
		checkedBags: bagsOrDefault(cfg.CheckedBags),
		carryOnBags: bagsOrDefault(cfg.CarryOnBags),
		limiter:     limiter,
		logger:      zap.L().Named(cfg.Name),
	}
}

func (p *HTTPProvider) Name() string {
	return p.cfg.Name
}

func (p *HTTPProvider) IsEligible(req *models.SearchRequest) bool {
	return eligible(req, p.cfg.Currencies, p.cfg.MaxLegs)
}

func (p *HTTPProvider) Initialize(ctx context.Context) error {
	if p.cfg.URL == "" {
		return eris.New("no endpoint configured")
	}
	p.client = &http.Client{Timeout: p.cfg.Timeout}
	return nil
}

func (p *HTTPProvider) Release() error {
	if p.client != nil {
		p.client.CloseIdleConnections()
		p.client = nil
	}
	return nil
}

func (p *HTTPProvider) Collect(ctx context.Context, req *models.SearchRequest) iter.Seq2[*models.Trip, error] {
	return func(yield func(*models.Trip, error) bool) {
		if p.client == nil {
			yield(nil, eris.New("collect before initialize"))
			return
		}
		resp, err := p.requestWithRetry(ctx, req)
		if err != nil {
			yield(nil, err)
			return
		}
		for trip, err := range p.trips(resp, req) {
			if !yield(trip, err) || err != nil {
				return
			}
		}
	}
}

// statusError is a non-2xx answer. Client errors are not retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("offers api status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (p *HTTPProvider) requestWithRetry(ctx context.Context, req *models.SearchRequest) (*offerResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(p.cfg.RetryDelays) {
				delayIdx = len(p.cfg.RetryDelays) - 1
			}
			delay := p.cfg.RetryDelays[delayIdx]

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx, p.Name()); err != nil {
				return nil, err
			}
		}

		resp, err := p.request(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		p.logger.Warn("offers request failed", zap.Int("attempt", attempt+1), zap.Error(err))

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
	}

	return nil, lastErr
}

func (p *HTTPProvider) request(ctx context.Context, req *models.SearchRequest) (*offerResponse, error) {
	body, err := json.Marshal(newOfferRequest(req))
	if err != nil {
		return nil, eris.Wrap(err, "encode offers request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "build offers request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("API-Key", p.cfg.APIKey)
	}
	for k, v := range p.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "post offers request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(msg)}
	}

	var out offerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "decode offers response")
	}
	return &out, nil
}

// trips joins priced products with the connections they reference. Products
// naming an unknown connection are skipped.
func (p *HTTPProvider) trips(resp *offerResponse, req *models.SearchRequest) iter.Seq2[*models.Trip, error] {
	return func(yield func(*models.Trip, error) bool) {
		connections := make(map[int]offerConnection)
		for _, leg := range resp.Connections {
			for _, c := range leg {
				connections[c.ID] = c
			}
		}

		for _, rec := range resp.Recommendations {
		products:
			for _, product := range rec.FlightProducts {
				flights := make([]*models.Flight, 0, len(product.Connections))
				for _, priced := range product.Connections {
					conn, ok := connections[priced.ConnectionID]
					if !ok {
						continue products
					}
					f, err := p.flight(conn, priced, req.Seat)
					if err != nil {
						yield(nil, err)
						return
					}
					flights = append(flights, f)
				}
				if len(flights) == 0 {
					continue
				}
				trip, err := models.NewTrip(flights...)
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(trip, nil) {
					return
				}
			}
		}
	}
}

func (p *HTTPProvider) flight(conn offerConnection, priced offerPrice, seat models.SeatType) (*models.Flight, error) {
	hops := make([]models.Hop, len(conn.Segments))
	for i, s := range conn.Segments {
		dep, err := timezone.ParseTimeWithOffset(s.DepartureDateTime, s.Origin.Code)
		if err != nil {
			return nil, eris.Wrapf(err, "connection %d segment %d departure", conn.ID, i)
		}
		arr, err := timezone.ParseTimeWithOffset(s.ArrivalDateTime, s.Destination.Code)
		if err != nil {
			return nil, eris.Wrapf(err, "connection %d segment %d arrival", conn.ID, i)
		}

		var price float64
		if i == 0 {
			price = priced.Price.TotalPrice
		}
		hops[i] = models.Hop{
			Origin:        s.Origin.Code,
			Destination:   s.Destination.Code,
			DepartureTime: timezone.ConvertToTimezone(dep, s.Origin.Code),
			ArrivalTime:   timezone.ConvertToTimezone(arr, s.Destination.Code),
			Airline:       s.MarketingFlight.Carrier.Name,
			Tickets: []models.Ticket{{
				Price:       price,
				Currency:    priced.Price.Currency,
				CheckedBags: p.checkedBags,
				CarryOnBags: p.carryOnBags,
				Seat:        seat,
			}},
		}
	}

	f, err := models.NewFlight(hops...)
	if err != nil {
		return nil, eris.Wrapf(err, "connection %d", conn.ID)
	}
	return f, nil
}
