package models

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SeatType is an ordinal cabin tier. Comparisons between seat types use the
// numeric value, so a higher tier always satisfies a lower request.
type SeatType int

const (
	Economy     SeatType = 0
	EconomyPlus SeatType = 5
	Premium     SeatType = 10
	Business    SeatType = 15
	Luxury      SeatType = 20
)

var seatNames = map[SeatType]string{
	Economy:     "Economy",
	EconomyPlus: "EconomyPlus",
	Premium:     "Premium",
	Business:    "Business",
	Luxury:      "Luxury",
}

func (s SeatType) String() string {
	if name, ok := seatNames[s]; ok {
		return name
	}
	return "SeatType(" + strconv.Itoa(int(s)) + ")"
}

// AtLeast reports whether s meets or exceeds the requested tier.
func (s SeatType) AtLeast(other SeatType) bool {
	return s >= other
}

func ParseSeatType(s string) (SeatType, error) {
	for seat, name := range seatNames {
		if strings.EqualFold(name, s) {
			return seat, nil
		}
	}
	return 0, eris.Wrapf(ErrUnknownSeatType, "seat %q", s)
}

func (s SeatType) MarshalText() ([]byte, error) {
	if _, ok := seatNames[s]; !ok {
		return nil, eris.Wrapf(ErrUnknownSeatType, "seat %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *SeatType) UnmarshalText(b []byte) error {
	seat, err := ParseSeatType(string(b))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

type JourneyType int

const (
	OneWay JourneyType = iota + 1
	RoundTrip
	MultiLeg
)

func (j JourneyType) String() string {
	switch j {
	case OneWay:
		return "OneWay"
	case RoundTrip:
		return "RoundTrip"
	case MultiLeg:
		return "MultiLeg"
	default:
		return "Unknown"
	}
}

func (j JourneyType) MarshalText() ([]byte, error) {
	return []byte(j.String()), nil
}

func (j *JourneyType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "oneway":
		*j = OneWay
	case "roundtrip":
		*j = RoundTrip
	case "multileg":
		*j = MultiLeg
	default:
		return eris.Errorf("unknown journey type %q", string(b))
	}
	return nil
}

// Jump is an (origin, destination) pair used to infer the journey type.
type Jump struct {
	Origin      string
	Destination string
}

// InferJourney classifies a sequence of jumps. Two jumps that mirror each
// other are a round trip; a single jump is one way; anything else is multi leg.
func InferJourney(jumps ...Jump) JourneyType {
	switch {
	case len(jumps) == 1:
		return OneWay
	case len(jumps) == 2 &&
		jumps[0].Origin == jumps[1].Destination &&
		jumps[0].Destination == jumps[1].Origin:
		return RoundTrip
	default:
		return MultiLeg
	}
}
