package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/internal/ratelimit"
)

const offersResponse = `{
  "connections": [
    [
      {"id": 1, "segments": [
        {"origin": {"code": "AMS"}, "destination": {"code": "JFK"},
         "departureDateTime": "2025-10-01T10:15:00", "arrivalDateTime": "2025-10-01T12:40:00",
         "marketingFlight": {"number": "641", "carrier": {"code": "KL", "name": "KLM"}}}
      ]},
      {"id": 2, "segments": [
        {"origin": {"code": "AMS"}, "destination": {"code": "CDG"},
         "departureDateTime": "2025-10-01T07:00:00", "arrivalDateTime": "2025-10-01T08:20:00",
         "marketingFlight": {"carrier": {"code": "AF", "name": "Air France"}}},
        {"origin": {"code": "CDG"}, "destination": {"code": "JFK"},
         "departureDateTime": "2025-10-01T10:30:00", "arrivalDateTime": "2025-10-01T12:55:00",
         "marketingFlight": {"carrier": {"code": "AF", "name": "Air France"}}}
      ]}
    ]
  ],
  "recommendations": [
    {"flightProducts": [
      {"connections": [{"connectionId": 1, "price": {"totalPrice": 512.4, "currency": "EUR"}}]},
      {"connections": [{"connectionId": 2, "price": {"totalPrice": 389, "currency": "EUR"}}]},
      {"connections": [{"connectionId": 9, "price": {"totalPrice": 1, "currency": "EUR"}}]}
    ]}
  ]
}`

func newTestProvider(url string, retries int) *HTTPProvider {
	return NewHTTPProvider(HTTPConfig{
		Name:        "offers",
		URL:         url,
		APIKey:      "secret",
		MaxRetries:  retries,
		RetryDelays: []time.Duration{time.Millisecond},
	}, ratelimit.NewProviderLimiterWithDefaults())
}

func TestHTTPProvider_Collect(t *testing.T) {
	var got offerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(offersResponse))
	}))
	defer srv.Close()

	req := search()
	req.Passengers = models.Passengers{Adults: 2, Children: 1}
	req.Seat = models.Business

	trips, err := Collect(context.Background(), newTestProvider(srv.URL, 0), req)
	require.NoError(t, err)
	require.Len(t, trips, 2, "product with an unknown connection is skipped")

	assert.Equal(t, []string{"BUSINESS"}, got.CommercialCabins)
	assert.Equal(t, []offerPassenger{{1, "ADT"}, {2, "ADT"}, {3, "CHD"}}, got.Passengers)
	require.Len(t, got.RequestedConnections, 1)
	assert.Equal(t, "2025-10-01", got.RequestedConnections[0].DepartureDate)
	assert.Equal(t, "AMS", got.RequestedConnections[0].Origin.Code)

	direct := trips[0].Flights[0]
	assert.Equal(t, 512.4, direct.Cheapest())
	assert.Equal(t, "KLM", direct.Hops[0].Airline)
	assert.Equal(t, models.Business, direct.Hops[0].Tickets[0].Seat)
	assert.Equal(t, "Europe/Amsterdam", direct.DepartureTime().Location().String())
	assert.Equal(t, "America/New_York", direct.ArrivalTime().Location().String())
	assert.Equal(t, 8*time.Hour+25*time.Minute, direct.Duration())

	via := trips[1].Flights[0]
	assert.Equal(t, []string{"AMS", "CDG", "JFK"}, via.Stops())
	assert.Equal(t, 389.0, via.Cheapest(), "price is carried by the first hop")
	assert.Equal(t, 0.0, via.Hops[1].Tickets[0].Price)
}

func TestHTTPProvider_BagAllowance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(offersResponse))
	}))
	defer srv.Close()

	trips, err := Collect(context.Background(), newTestProvider(srv.URL, 0), search())
	require.NoError(t, err)
	require.NotEmpty(t, trips)
	for _, h := range trips[0].Flights[0].Hops {
		assert.Equal(t, 1, h.Tickets[0].CheckedBags)
		assert.Equal(t, 1, h.Tickets[0].CarryOnBags)
	}

	none := 0
	p := NewHTTPProvider(HTTPConfig{Name: "hand-luggage", URL: srv.URL, CheckedBags: &none}, nil)
	trips, err = Collect(context.Background(), p, search())
	require.NoError(t, err)
	require.NotEmpty(t, trips)
	assert.Equal(t, 0, trips[0].Flights[0].Hops[0].Tickets[0].CheckedBags)
	assert.Equal(t, 1, trips[0].Flights[0].Hops[0].Tickets[0].CarryOnBags)
}

func TestHTTPProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(offersResponse))
	}))
	defer srv.Close()

	trips, err := Collect(context.Background(), newTestProvider(srv.URL, 3), search())
	require.NoError(t, err)
	assert.Len(t, trips, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPProvider_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Collect(context.Background(), newTestProvider(srv.URL, 3), search())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPProvider_NoEndpoint(t *testing.T) {
	_, err := Collect(context.Background(), newTestProvider("", 0), search())
	assert.Error(t, err)
}

func TestHTTPProvider_Eligibility(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{Name: "x", Currencies: []string{"eur"}, MaxLegs: 1}, nil)
	assert.True(t, p.IsEligible(search()))

	rt := search()
	rt.Legs = append(rt.Legs, rt.Legs[0])
	assert.False(t, p.IsEligible(rt))
}
