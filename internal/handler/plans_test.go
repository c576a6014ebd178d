package handler

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightplanner/internal/document"
	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/internal/providers"
	"github.com/dharmasatrya/flightplanner/internal/store"
)

type fixed struct {
	name  string
	price float64
}

func (f fixed) Name() string                              { return f.name }
func (f fixed) IsEligible(req *models.SearchRequest) bool { return true }
func (f fixed) Initialize(ctx context.Context) error      { return nil }
func (f fixed) Release() error                            { return nil }

func (f fixed) Collect(ctx context.Context, req *models.SearchRequest) iter.Seq2[*models.Trip, error] {
	return func(yield func(*models.Trip, error) bool) {
		flights := make([]*models.Flight, len(req.Legs))
		for i, leg := range req.Legs {
			dep := time.Date(leg.Date.Year, leg.Date.Month, leg.Date.Day, 9, 0, 0, 0, time.UTC)
			fl, err := models.NewFlight(models.Hop{
				Origin:        leg.Origin,
				Destination:   leg.Destination,
				DepartureTime: dep,
				ArrivalTime:   dep.Add(7 * time.Hour),
				Airline:       "KLM",
				Tickets:       []models.Ticket{{Price: f.price, Currency: "EUR"}},
			})
			if err != nil {
				yield(nil, err)
				return
			}
			flights[i] = fl
		}
		yield(models.NewTrip(flights...))
	}
}

const planJSON = `{
  "options": [{
    "name": "spring",
    "legs": [{"origins": ["AMS"], "destinations": ["JFK", "EWR"], "dates": ["2025-04-01"]}],
    "passengers": {"adults": 1},
    "currency": "EUR",
    "seat": "Economy"
  }],
  "providers": ["cheap", "dear"]
}`

func newServer(t *testing.T) (*echo.Echo, store.Store) {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	h := NewPlanHandler([]providers.Provider{fixed{"cheap", 100}, fixed{"dear", 400}}, s, 2)
	e := echo.New()
	h.Register(e.Group("/api/v1"))
	e.GET("/health", HealthHandler)
	return e, s
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPlanHandler_Search(t *testing.T) {
	e, s := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/plans/search", planJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res document.Results
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 4, res.Stats.Planned)

	require.Len(t, res.Results, 1)
	group := res.Results[0]
	assert.Equal(t, "spring", group.Name)
	require.Len(t, group.Results, 4)
	assert.Equal(t, "cheap", group.Results[0].Provider())
	assert.Equal(t, "cheap", group.Results[1].Provider())
	for i, r := range group.Results {
		assert.Equal(t, i, r.Rank)
	}

	stored, err := s.Load(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, stored.RunID)

	rec = do(e, http.MethodGet, "/api/v1/plans/"+res.RunID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlanHandler_SearchRejects(t *testing.T) {
	e, _ := newServer(t)

	tests := map[string]string{
		"malformed":        `{"options": [`,
		"no options":       `{"options": []}`,
		"unknown provider": `{"options": [{"name": "x", "legs": [{"origins": ["A"], "destinations": ["B"], "dates": ["2025-01-01"]}]}], "providers": ["ghost"]}`,
		"bad seat":         `{"options": [{"name": "x", "seat": "Hammock", "legs": [{"origins": ["A"], "destinations": ["B"], "dates": ["2025-01-01"]}]}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/plans/search", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestPlanHandler_Rerank(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/plans/search", planJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var first document.Results
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// price no longer inverted: the dear provider comes first
	body, err := json.Marshal(map[string]any{
		"ranking": []map[string]any{{"type": "price", "weight": 1, "inverted": false}},
		"results": first,
	})
	require.NoError(t, err)

	rec = do(e, http.MethodPost, "/api/v1/plans/rerank", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var again document.Results
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.NotEqual(t, first.RunID, again.RunID)
	require.Len(t, again.Results, 1)
	require.Len(t, again.Results[0].Results, 4)
	assert.Equal(t, "dear", again.Results[0].Results[0].Provider())
	assert.Equal(t, 1.0, again.Results[0].Results[0].Score.Score)

	rec = do(e, http.MethodPost, "/api/v1/plans/rerank", `{"ranking": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanHandler_GetMissing(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodGet, "/api/v1/plans/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
