// Package timezone maps airports to their IANA zones so provider timestamps
// without an offset can be read as airport local time.
package timezone

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

var airportTimezones = map[string]string{
	// Europe
	"AMS": "Europe/Amsterdam",
	"EIN": "Europe/Amsterdam",
	"RTM": "Europe/Amsterdam",
	"BRU": "Europe/Brussels",
	"CDG": "Europe/Paris",
	"ORY": "Europe/Paris",
	"LHR": "Europe/London",
	"LGW": "Europe/London",
	"FRA": "Europe/Berlin",
	"MUC": "Europe/Berlin",
	"BER": "Europe/Berlin",
	"MAD": "Europe/Madrid",
	"BCN": "Europe/Madrid",
	"FCO": "Europe/Rome",
	"ZRH": "Europe/Zurich",
	"IST": "Europe/Istanbul",

	// Middle East
	"DOH": "Asia/Qatar",
	"DXB": "Asia/Dubai",
	"AUH": "Asia/Dubai",

	// Americas
	"JFK": "America/New_York",
	"EWR": "America/New_York",
	"BOS": "America/New_York",
	"ATL": "America/New_York",
	"ORD": "America/Chicago",
	"DFW": "America/Chicago",
	"DEN": "America/Denver",
	"LAX": "America/Los_Angeles",
	"SFO": "America/Los_Angeles",
	"SEA": "America/Los_Angeles",
	"YYZ": "America/Toronto",
	"MEX": "America/Mexico_City",
	"GRU": "America/Sao_Paulo",

	// Asia Pacific
	"CGK": "Asia/Jakarta",
	"SUB": "Asia/Jakarta",
	"KNO": "Asia/Jakarta",
	"DPS": "Asia/Makassar",
	"UPG": "Asia/Makassar",
	"DJJ": "Asia/Jayapura",
	"SIN": "Asia/Singapore",
	"KUL": "Asia/Kuala_Lumpur",
	"BKK": "Asia/Bangkok",
	"HKG": "Asia/Hong_Kong",
	"NRT": "Asia/Tokyo",
	"HND": "Asia/Tokyo",
	"ICN": "Asia/Seoul",
	"SYD": "Australia/Sydney",
}

var (
	mu        sync.RWMutex
	locations = map[string]*time.Location{}
)

// Register adds or overrides the zone of an airport.
func Register(airport, zone string) error {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	airportTimezones[strings.ToUpper(airport)] = zone
	locations[strings.ToUpper(airport)] = loc
	return nil
}

func GetTimezoneByAirport(code string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	tz, ok := airportTimezones[strings.ToUpper(code)]
	return tz, ok
}

// GetLocationByAirport returns the airport's location, UTC when unknown.
func GetLocationByAirport(code string) *time.Location {
	code = strings.ToUpper(code)
	mu.RLock()
	loc, ok := locations[code]
	mu.RUnlock()
	if ok {
		return loc
	}

	tz, known := GetTimezoneByAirport(code)
	if !known {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}

	mu.Lock()
	locations[code] = loc
	mu.Unlock()
	return loc
}

// ParseTimeWithOffset parses timestamps with an explicit offset as is and
// reads naive ones as wall clock time at the given airport.
func ParseTimeWithOffset(timeStr string, airport string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t, nil
		}
	}

	loc := GetLocationByAirport(airport)
	simpleFormats := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, format := range simpleFormats {
		if t, err := time.ParseInLocation(format, timeStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

func ConvertToTimezone(t time.Time, airportCode string) time.Time {
	return t.In(GetLocationByAirport(airportCode))
}
