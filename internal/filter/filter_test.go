package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dharmasatrya/flightplanner/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 10, 1, hour, minute, 0, 0, time.UTC)
}

func ticket(price float64, checked int) models.Ticket {
	return models.Ticket{Price: price, Currency: "EUR", CheckedBags: checked, CarryOnBags: 1, Seat: models.Economy}
}

func flight(t *testing.T, hops ...models.Hop) *models.Flight {
	t.Helper()
	f, err := models.NewFlight(hops...)
	require.NoError(t, err)
	return f
}

func hop(origin, destination string, dep, arr time.Time, airline string, tickets ...models.Ticket) models.Hop {
	return models.Hop{
		Origin:        origin,
		Destination:   destination,
		DepartureTime: dep,
		ArrivalTime:   arr,
		Airline:       airline,
		Tickets:       tickets,
	}
}

func TestLuggageFilter_PrunesTickets(t *testing.T) {
	f := flight(t, hop("JFK", "LHR", at(8, 0), at(16, 0), "Delta", ticket(50, 0), ticket(80, 1)))
	lf, err := models.NewFilter(KindLuggage)
	require.NoError(t, err)
	lf.(*LuggageFilter).Checked = 1

	ok, err := lf.Filter(f)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []models.Ticket{ticket(80, 1)}, f.Hops[0].Tickets)
}

func TestLuggageFilter_NoQualifyingTicket(t *testing.T) {
	f := flight(t, hop("JFK", "LHR", at(8, 0), at(16, 0), "Delta", ticket(50, 0), ticket(80, 0)))

	ok, err := (&LuggageFilter{Checked: 1, CarryOn: 1}).Filter(f)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.Hops[0].Tickets)
}

func TestLuggageFilter_StopsAtFirstEmptyHop(t *testing.T) {
	f := flight(t,
		hop("AMS", "CDG", at(8, 0), at(9, 0), "KLM", ticket(50, 0)),
		hop("CDG", "JFK", at(11, 0), at(19, 0), "Air France", ticket(300, 0), ticket(400, 2)),
	)

	ok, err := (&LuggageFilter{Checked: 1, CarryOn: 1}).Filter(f)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, f.Hops[1].Tickets, 2, "later hops are left untouched")
}

func TestStopsFilter(t *testing.T) {
	direct := flight(t, hop("AMS", "JFK", at(8, 0), at(16, 0), "KLM", ticket(300, 1)))
	oneStop := flight(t,
		hop("AMS", "CDG", at(8, 0), at(9, 0), "KLM", ticket(50, 1)),
		hop("CDG", "JFK", at(11, 0), at(19, 0), "Air France", ticket(300, 1)),
	)

	f := &StopsFilter{Max: 0}
	ok, _ := f.Filter(direct)
	assert.True(t, ok)
	ok, _ = f.Filter(oneStop)
	assert.False(t, ok)

	f.Max = 1
	ok, _ = f.Filter(oneStop)
	assert.True(t, ok)
}

func TestPriceFilter(t *testing.T) {
	fl := flight(t,
		hop("AMS", "CDG", at(8, 0), at(9, 0), "KLM", ticket(50, 1), ticket(70, 1)),
		hop("CDG", "JFK", at(11, 0), at(19, 0), "Air France", ticket(300, 1)),
	)

	tests := []struct {
		name   string
		filter PriceFilter
		want   bool
	}{
		{name: "inside", filter: PriceFilter{Min: 0, Max: 400, Currency: "EUR"}, want: true},
		{name: "inclusive max", filter: PriceFilter{Min: 0, Max: 350, Currency: "EUR"}, want: true},
		{name: "above max", filter: PriceFilter{Min: 0, Max: 349, Currency: "EUR"}, want: false},
		{name: "below min", filter: PriceFilter{Min: 351, Max: 1000, Currency: "EUR"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.filter.Filter(fl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := (&PriceFilter{Max: 1000, Currency: "USD"}).Filter(fl)
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)
}

func TestTimeWindowFilters(t *testing.T) {
	fl := flight(t, hop("AMS", "JFK", at(9, 30), at(17, 45), "KLM", ticket(300, 1)))

	dep := &DepartureTimeFilter{Min: NewClock(9, 30), Max: NewClock(12, 0)}
	ok, _ := dep.Filter(fl)
	assert.True(t, ok)

	dep.Min = NewClock(9, 31)
	ok, _ = dep.Filter(fl)
	assert.False(t, ok)

	arr := &ArrivalTimeFilter{Min: NewClock(6, 0), Max: NewClock(17, 0)}
	ok, _ = arr.Filter(fl)
	assert.False(t, ok)

	arr.Max = NewClock(18, 0)
	ok, _ = arr.Filter(fl)
	assert.True(t, ok)
}

func TestDurationFilter(t *testing.T) {
	fl := flight(t, hop("AMS", "JFK", at(9, 0), at(17, 0), "KLM", ticket(300, 1)))

	ok, _ := (&DurationFilter{Max: 480}).Filter(fl)
	assert.True(t, ok)
	ok, _ = (&DurationFilter{Max: 479}).Filter(fl)
	assert.False(t, ok)
	ok, _ = (&DurationFilter{Min: 481, Max: 1000}).Filter(fl)
	assert.False(t, ok)
}

func TestAirlineFilter(t *testing.T) {
	fl := flight(t,
		hop("AMS", "CDG", at(8, 0), at(9, 0), "KLM", ticket(50, 1)),
		hop("CDG", "JFK", at(11, 0), at(19, 0), "Air France", ticket(300, 1)),
	)

	ok, _ := (&AirlineFilter{Airlines: []string{"klm", "air france"}}).Filter(fl)
	assert.True(t, ok)
	ok, _ = (&AirlineFilter{Airlines: []string{"KLM"}}).Filter(fl)
	assert.False(t, ok)
}

func TestAll(t *testing.T) {
	out := flight(t, hop("AMS", "JFK", at(9, 0), at(17, 0), "KLM", ticket(50, 0), ticket(80, 1)))
	back := flight(t, hop("JFK", "AMS", at(19, 0), at(23, 0), "Delta", ticket(40, 0)))
	trip, err := models.NewTrip(out, back)
	require.NoError(t, err)

	ok, err := All(nil, trip)
	require.NoError(t, err)
	assert.True(t, ok, "no filters accepts everything")

	ok, err = All([]models.ResultFilter{&LuggageFilter{Checked: 1, CarryOn: 1}}, trip)
	require.NoError(t, err)
	assert.False(t, ok, "return flight has no checked bag ticket")
	assert.Len(t, out.Hops[0].Tickets, 1, "outbound was pruned before rejection")

	_, err = All([]models.ResultFilter{&PriceFilter{Max: 10, Currency: "USD"}}, trip)
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)
}

func TestFilters_YAMLDocument(t *testing.T) {
	doc := `
- type: luggage
  checked: 1
- type: departure_time
  min: "07:00"
  max: "21:30"
- type: price
  max: 900
- type: stops
  stops: 1
`
	var fs models.Filters
	require.NoError(t, yaml.Unmarshal([]byte(doc), &fs))
	require.Len(t, fs, 4)

	assert.Equal(t, &LuggageFilter{Checked: 1, CarryOn: 1}, fs[0])
	assert.Equal(t, &DepartureTimeFilter{Min: NewClock(7, 0), Max: NewClock(21, 30)}, fs[1])
	assert.Equal(t, &PriceFilter{Max: 900, Currency: "EUR"}, fs[2])
	assert.Equal(t, &StopsFilter{Max: 1}, fs[3])

	out, err := yaml.Marshal(fs)
	require.NoError(t, err)
	var again models.Filters
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, fs, again)
}

func TestFilters_RejectMalformedEntries(t *testing.T) {
	yamlDocs := map[string]string{
		"unknown field":      "- type: luggage\n  checkd: 2\n",
		"price without max":  "- type: price\n  min: 10\n",
		"departure reversed": "- type: departure_time\n  min: \"22:00\"\n  max: \"06:00\"\n",
		"duration reversed":  "- type: duration\n  min: 90\n  max: 30\n",
	}
	for name, doc := range yamlDocs {
		t.Run("yaml/"+name, func(t *testing.T) {
			var fs models.Filters
			assert.Error(t, yaml.Unmarshal([]byte(doc), &fs))
		})
	}

	jsonDocs := map[string]string{
		"unknown field":       `[{"type": "luggage", "checkd": 2}]`,
		"price without max":   `[{"type": "price", "min": 10}]`,
		"price min above max": `[{"type": "price", "min": 50, "max": 10}]`,
		"arrival reversed":    `[{"type": "arrival_time", "min": "18:00", "max": "08:00"}]`,
	}
	for name, doc := range jsonDocs {
		t.Run("json/"+name, func(t *testing.T) {
			var fs models.Filters
			assert.Error(t, json.Unmarshal([]byte(doc), &fs))
		})
	}

	var fs models.Filters
	require.NoError(t, json.Unmarshal([]byte(`[{"type": "luggage", "checked": 2}, {"type": "price", "min": 10, "max": 400}]`), &fs))
	assert.Equal(t, &LuggageFilter{Checked: 2, CarryOn: 1}, fs[0])
	assert.Equal(t, &PriceFilter{Min: 10, Max: 400, Currency: "EUR"}, fs[1])

	err := (&PriceFilter{Min: 10}).Validate()
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}

func TestClock(t *testing.T) {
	c, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, NewClock(7, 5), c)
	assert.Equal(t, "07:05", c.String())

	_, err = ParseClock("7pm")
	assert.Error(t, err)
}
