package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightplanner/internal/document"
)

const tripsFixture = `{
  "trips": [
    {"flights": [{"hops": [{
      "origin": "AMS", "destination": "JFK",
      "departure_time": "2025-10-01T10:00:00+02:00", "arrival_time": "2025-10-01T12:15:00-04:00",
      "airline": "KLM",
      "tickets": [{"price": 420, "currency": "EUR", "checked_bags": 1, "carryon_bags": 1, "seat_type": "Economy"}]
    }]}]},
    {"flights": [{"hops": [{
      "origin": "AMS", "destination": "JFK",
      "departure_time": "2025-10-01T07:00:00+02:00", "arrival_time": "2025-10-01T11:30:00-04:00",
      "airline": "Qatar Airways",
      "tickets": [{"price": 380, "currency": "EUR", "checked_bags": 1, "carryon_bags": 1, "seat_type": "Economy"}]
    }]}]}
  ]
}`

const configYAML = `
log:
  level: error
providers:
  - name: fixture
    type: static
    path: trips.json
`

const planYAML = `
options:
  - name: autumn
    legs:
      - origins: [AMS]
        destinations: [JFK]
        dates: [2025-10-01]
    passengers:
      adults: 1
    currency: EUR
    seat: Economy
ranking:
  - type: price
    weight: 1
`

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "rerank", "combine", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "flightplanner", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCommand_Flags(t *testing.T) {
	tests := []struct {
		cmd  string
		flag string
		def  string
	}{
		{"run", "plan", ""},
		{"run", "out", "results.yaml"},
		{"run", "top", "10"},
		{"rerank", "in", ""},
		{"combine", "provider", ""},
		{"serve", "port", ""},
	}
	for _, tt := range tests {
		t.Run(tt.cmd+"/"+tt.flag, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.cmd})
			require.NoError(t, err)
			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trips.json"), []byte(tripsFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.yaml"), []byte(planYAML), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
}

func TestRunRerankCombine(t *testing.T) {
	dir := workspace(t)

	execute(t, "run", "--plan", "plan.yaml", "--out", "results.yaml", "--report", "report.txt")

	res, err := document.LoadResults(filepath.Join(dir, "results.yaml"))
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	group := res.Results[0].Results
	require.Len(t, group, 2)
	assert.Equal(t, 380.0, group[0].Query.Trip.Cheapest())
	assert.Equal(t, 2, res.Stats.Collected)

	report, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), `Results for plan "autumn":`)
	assert.Contains(t, string(report), "EUR 380,00")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "reverse.yaml"), []byte(planYAML+"    inverted: false\n"), 0o644))
	execute(t, "rerank", "--plan", "reverse.yaml", "--in", "results.yaml", "--out", "reranked.yaml")

	reranked, err := document.LoadResults(filepath.Join(dir, "reranked.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 420.0, reranked.Results[0].Results[0].Query.Trip.Cheapest())

	execute(t, "combine", "--base", "results.yaml", "--extra", "reranked.yaml", "--provider", "fixture", "--out", "combined.yaml")

	combined, err := document.LoadResults(filepath.Join(dir, "combined.yaml"))
	require.NoError(t, err)
	require.Len(t, combined.Results[0].Results, 2)
	assert.Equal(t, 420.0, combined.Results[0].Results[0].Query.Trip.Cheapest())
}

func TestRun_MissingPlan(t *testing.T) {
	workspace(t)

	rootCmd.SetArgs([]string{"run", "--plan", "nope.yaml"})
	assert.Error(t, rootCmd.Execute())
}
