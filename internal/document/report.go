package document

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dharmasatrya/flightplanner/internal/models"
	"github.com/dharmasatrya/flightplanner/pkg/currency"
)

const reportTimeLayout = "Mon 02 Jan, 2006 (15:04)"

// WriteReport renders results as plain text, best first. limit caps the
// entries per group; zero or less prints everything.
func WriteReport(w io.Writer, results []models.PlanResult, limit int) error {
	bw := bufio.NewWriter(w)
	for _, group := range results {
		fmt.Fprintf(bw, "Results for plan %q:\n%s\n\n", group.Name, strings.Repeat("-", 33))
		for i, r := range group.Results {
			if limit > 0 && i >= limit {
				break
			}
			writeEntry(bw, r)
		}
		fmt.Fprintf(bw, "\n%s\n\n", strings.Repeat("-", 40))
	}
	return bw.Flush()
}

func writeEntry(w io.Writer, r models.ScoredQueryResult) {
	trip := r.Query.Trip
	fmt.Fprintf(w, "#%d  Score = %.4f\n[%s]\n %s\n", r.Rank+1, r.Score.Score, r.Provider(), currency.Format(trip.Cheapest(), trip.Currency()))
	for _, f := range trip.Flights {
		seats := make([]string, 0, len(f.Seats()))
		for _, s := range f.Seats() {
			seats = append(seats, s.String())
		}
		airlines := make([]string, len(f.Hops))
		for i, h := range f.Hops {
			airlines[i] = h.Airline
		}
		fmt.Fprintf(w, "  * %s - %s\n", f.DepartureTime().Format(reportTimeLayout), f.ArrivalTime().Format(reportTimeLayout))
		fmt.Fprintf(w, "    %s\n", f.DurationString())
		fmt.Fprintf(w, "    %s, %s, %s\n", currency.Format(f.Cheapest(), f.Currency()), strings.Join(seats, "|"), strings.Join(airlines, "/"))
		fmt.Fprintf(w, "    %s\n\n", strings.Join(f.Stops(), " -> "))
	}
}
