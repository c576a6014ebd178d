package providers

import (
	"github.com/dharmasatrya/flightplanner/internal/models"
)

// Wire format of the lowest-fare offers API spoken by HTTPProvider.

type offerRequest struct {
	BookingFlow          string           `json:"bookingFlow"`
	CommercialCabins     []string         `json:"commercialCabins"`
	Passengers           []offerPassenger `json:"passengers"`
	Currency             string           `json:"currency"`
	RequestedConnections []offerLeg       `json:"requestedConnections"`
}

type offerPassenger struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

type offerPlace struct {
	Type string `json:"type,omitempty"`
	Code string `json:"code"`
}

type offerLeg struct {
	DepartureDate string     `json:"departureDate"`
	DateInterval  string     `json:"dateInterval"`
	Origin        offerPlace `json:"origin"`
	Destination   offerPlace `json:"destination"`
}

type offerResponse struct {
	Connections     [][]offerConnection   `json:"connections"`
	Recommendations []offerRecommendation `json:"recommendations"`
}

type offerConnection struct {
	ID       int            `json:"id"`
	Segments []offerSegment `json:"segments"`
}

type offerSegment struct {
	Origin            offerPlace `json:"origin"`
	Destination       offerPlace `json:"destination"`
	DepartureDateTime string     `json:"departureDateTime"`
	ArrivalDateTime   string     `json:"arrivalDateTime"`
	MarketingFlight   struct {
		Number  string `json:"number"`
		Carrier struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"carrier"`
	} `json:"marketingFlight"`
}

type offerRecommendation struct {
	FlightProducts []offerProduct `json:"flightProducts"`
}

type offerProduct struct {
	Connections []offerPrice `json:"connections"`
}

type offerPrice struct {
	ConnectionID int `json:"connectionId"`
	Price        struct {
		TotalPrice float64 `json:"totalPrice"`
		Currency   string  `json:"currency"`
	} `json:"price"`
}

func cabinOf(seat models.SeatType) string {
	switch {
	case seat.AtLeast(models.Luxury):
		return "FIRST"
	case seat.AtLeast(models.Business):
		return "BUSINESS"
	case seat.AtLeast(models.Premium):
		return "PREMIUM"
	default:
		return "ECONOMY"
	}
}

func offerPassengers(p models.Passengers) []offerPassenger {
	out := make([]offerPassenger, 0, p.Total())
	add := func(n int, kind string) {
		for range n {
			out = append(out, offerPassenger{ID: len(out) + 1, Type: kind})
		}
	}
	add(p.Adults, "ADT")
	add(p.Children, "CHD")
	add(p.InfantsInSeat, "INS")
	add(p.InfantsOnLap, "INF")
	return out
}

func newOfferRequest(req *models.SearchRequest) offerRequest {
	legs := make([]offerLeg, len(req.Legs))
	for i, l := range req.Legs {
		d := l.Date.String()
		legs[i] = offerLeg{
			DepartureDate: d,
			DateInterval:  d + "/" + d,
			Origin:        offerPlace{Type: "AIRPORT", Code: l.Origin},
			Destination:   offerPlace{Type: "AIRPORT", Code: l.Destination},
		}
	}
	return offerRequest{
		BookingFlow:          "LEISURE",
		CommercialCabins:     []string{cabinOf(req.Seat)},
		Passengers:           offerPassengers(req.Passengers),
		Currency:             req.Currency,
		RequestedConnections: legs,
	}
}
