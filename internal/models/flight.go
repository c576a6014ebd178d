package models

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

type Ticket struct {
	Price       float64  `json:"price" yaml:"price"`
	Currency    string   `json:"currency" yaml:"currency"`
	CheckedBags int      `json:"checked_bags" yaml:"checked_bags"`
	CarryOnBags int      `json:"carryon_bags" yaml:"carryon_bags"`
	Seat        SeatType `json:"seat_type" yaml:"seat_type"`
}

type Layover struct {
	Location  string    `json:"location" yaml:"location"`
	StartTime time.Time `json:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time" yaml:"end_time"`
}

func (l Layover) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}

// Hop is a single flight leg operated by one airline. Tickets are kept
// sorted by ascending price.
type Hop struct {
	Origin        string    `json:"origin" yaml:"origin"`
	Destination   string    `json:"destination" yaml:"destination"`
	DepartureTime time.Time `json:"departure_time" yaml:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time" yaml:"arrival_time"`
	Airline       string    `json:"airline" yaml:"airline"`
	Tickets       []Ticket  `json:"tickets" yaml:"tickets"`
}

// NewHop validates the hop and sorts its tickets by price.
func NewHop(h Hop) (*Hop, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	h.SortTickets()
	return &h, nil
}

func (h *Hop) Validate() error {
	if len(h.Tickets) == 0 {
		return eris.Wrapf(ErrNoTickets, "hop %s->%s", h.Origin, h.Destination)
	}
	for _, t := range h.Tickets[1:] {
		if t.Currency != h.Tickets[0].Currency {
			return eris.Wrapf(ErrCurrencyMismatch, "hop %s->%s: %s != %s",
				h.Origin, h.Destination, t.Currency, h.Tickets[0].Currency)
		}
	}
	return nil
}

func (h *Hop) SortTickets() {
	sort.SliceStable(h.Tickets, func(i, j int) bool {
		return h.Tickets[i].Price < h.Tickets[j].Price
	})
}

func (h *Hop) Duration() time.Duration {
	return h.ArrivalTime.Sub(h.DepartureTime)
}

func (h *Hop) Currency() string {
	if len(h.Tickets) == 0 {
		return ""
	}
	return h.Tickets[0].Currency
}

// Cheapest returns the lowest priced ticket, or nil when the hop has been
// pruned down to no tickets.
func (h *Hop) Cheapest() *Ticket {
	if len(h.Tickets) == 0 {
		return nil
	}
	return &h.Tickets[0]
}

// Ticket returns the cheapest ticket whose seat tier meets or exceeds seat.
func (h *Hop) Ticket(seat SeatType) *Ticket {
	for i := range h.Tickets {
		if h.Tickets[i].Seat.AtLeast(seat) {
			return &h.Tickets[i]
		}
	}
	return nil
}

// Flight is a connected sequence of hops forming one directional itinerary.
type Flight struct {
	Hops []Hop             `json:"hops" yaml:"hops"`
	Info map[string]string `json:"info,omitempty" yaml:"info,omitempty"`
}

func NewFlight(hops ...Hop) (*Flight, error) {
	f := &Flight{Hops: hops}
	for i := range f.Hops {
		f.Hops[i].SortTickets()
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Flight) Validate() error {
	if len(f.Hops) == 0 {
		return eris.Wrap(ErrNoHops, "flight")
	}
	for i := range f.Hops {
		if err := f.Hops[i].Validate(); err != nil {
			return err
		}
	}
	for i := 1; i < len(f.Hops); i++ {
		if f.Hops[i].Currency() != f.Hops[i-1].Currency() {
			return eris.Wrapf(ErrCurrencyMismatch, "flight legs %d and %d", i-1, i)
		}
	}
	return nil
}

func (f *Flight) Origin() string {
	return f.Hops[0].Origin
}

func (f *Flight) Destination() string {
	return f.Hops[len(f.Hops)-1].Destination
}

func (f *Flight) DepartureTime() time.Time {
	return f.Hops[0].DepartureTime
}

func (f *Flight) ArrivalTime() time.Time {
	return f.Hops[len(f.Hops)-1].ArrivalTime
}

func (f *Flight) Duration() time.Duration {
	return f.ArrivalTime().Sub(f.DepartureTime())
}

// DurationString formats the total duration as hours and zero padded
// minutes, e.g. "13h05".
func (f *Flight) DurationString() string {
	return FormatDuration(f.Duration())
}

func FormatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	return fmt.Sprintf("%dh%02d", mins/60, mins%60)
}

func (f *Flight) Currency() string {
	return f.Hops[0].Currency()
}

func (f *Flight) Layovers() []Layover {
	layovers := make([]Layover, 0, len(f.Hops))
	for i := 1; i < len(f.Hops); i++ {
		layovers = append(layovers, Layover{
			Location:  f.Hops[i].Origin,
			StartTime: f.Hops[i-1].ArrivalTime,
			EndTime:   f.Hops[i].DepartureTime,
		})
	}
	return layovers
}

func (f *Flight) LayoverTime() time.Duration {
	var total time.Duration
	for _, l := range f.Layovers() {
		total += l.Duration()
	}
	return total
}

func (f *Flight) InAirTime() time.Duration {
	return f.Duration() - f.LayoverTime()
}

func (f *Flight) CheapestTickets() []Ticket {
	tickets := make([]Ticket, 0, len(f.Hops))
	for i := range f.Hops {
		if t := f.Hops[i].Cheapest(); t != nil {
			tickets = append(tickets, *t)
		}
	}
	return tickets
}

// Cheapest sums the cheapest ticket of every hop.
func (f *Flight) Cheapest() float64 {
	var total float64
	for _, t := range f.CheapestTickets() {
		total += t.Price
	}
	return total
}

// Tickets returns, per hop, the cheapest ticket meeting seat. Entries are nil
// for hops without a qualifying ticket.
func (f *Flight) Tickets(seat SeatType) []*Ticket {
	tickets := make([]*Ticket, len(f.Hops))
	for i := range f.Hops {
		tickets[i] = f.Hops[i].Ticket(seat)
	}
	return tickets
}

// Seats lists the distinct seat tiers of the cheapest tickets, lowest first.
func (f *Flight) Seats() []SeatType {
	var seats []SeatType
	for _, t := range f.CheapestTickets() {
		if !slices.Contains(seats, t.Seat) {
			seats = append(seats, t.Seat)
		}
	}
	slices.Sort(seats)
	return seats
}

// Stops lists the airports the flight touches in order, collapsing a hop
// origin that repeats the previous destination.
func (f *Flight) Stops() []string {
	stops := make([]string, 0, len(f.Hops)+1)
	for _, h := range f.Hops {
		if len(stops) == 0 || stops[len(stops)-1] != h.Origin {
			stops = append(stops, h.Origin)
		}
		stops = append(stops, h.Destination)
	}
	return stops
}

func (f *Flight) Airlines() []string {
	var airlines []string
	for _, h := range f.Hops {
		if !slices.Contains(airlines, h.Airline) {
			airlines = append(airlines, h.Airline)
		}
	}
	return airlines
}

func (f *Flight) Clone() *Flight {
	c := &Flight{Hops: make([]Hop, len(f.Hops))}
	for i, h := range f.Hops {
		h.Tickets = slices.Clone(h.Tickets)
		c.Hops[i] = h
	}
	if f.Info != nil {
		c.Info = make(map[string]string, len(f.Info))
		for k, v := range f.Info {
			c.Info[k] = v
		}
	}
	return c
}

// Trip is the ordered set of flights that together answer one search
// request, e.g. the outbound and return flights of a round trip.
type Trip struct {
	Flights []*Flight `json:"flights" yaml:"flights"`
}

func NewTrip(flights ...*Flight) (*Trip, error) {
	t := &Trip{Flights: flights}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trip) Validate() error {
	if len(t.Flights) == 0 {
		return eris.Wrap(ErrNoFlights, "trip")
	}
	for i, f := range t.Flights {
		if err := f.Validate(); err != nil {
			return eris.Wrapf(err, "trip flight %d", i)
		}
	}
	for i := 1; i < len(t.Flights); i++ {
		if t.Flights[i].Currency() != t.Flights[i-1].Currency() {
			return eris.Wrapf(ErrCurrencyMismatch, "trip flights %d and %d", i-1, i)
		}
	}
	return nil
}

func (t *Trip) Journey() JourneyType {
	jumps := make([]Jump, len(t.Flights))
	for i, f := range t.Flights {
		jumps[i] = Jump{Origin: f.Origin(), Destination: f.Destination()}
	}
	return InferJourney(jumps...)
}

func (t *Trip) Currency() string {
	return t.Flights[0].Currency()
}

func (t *Trip) Cheapest() float64 {
	var total float64
	for _, f := range t.Flights {
		total += f.Cheapest()
	}
	return total
}

func (t *Trip) Route() [][]string {
	route := make([][]string, len(t.Flights))
	for i, f := range t.Flights {
		route[i] = f.Stops()
	}
	return route
}

// RouteString renders the route as "AMS->CDG | CDG->AMS".
func (t *Trip) RouteString() string {
	parts := make([]string, len(t.Flights))
	for i, stops := range t.Route() {
		parts[i] = strings.Join(stops, "->")
	}
	return strings.Join(parts, " | ")
}

// Airlines lists every airline operating a hop of the trip, sorted.
func (t *Trip) Airlines() []string {
	var airlines []string
	for _, f := range t.Flights {
		for _, a := range f.Airlines() {
			if !slices.Contains(airlines, a) {
				airlines = append(airlines, a)
			}
		}
	}
	slices.Sort(airlines)
	return airlines
}

func (t *Trip) Clone() *Trip {
	c := &Trip{Flights: make([]*Flight, len(t.Flights))}
	for i, f := range t.Flights {
		c.Flights[i] = f.Clone()
	}
	return c
}
