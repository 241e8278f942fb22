package citiesapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkordes/worldwise/internal/domain"
)

// isoMillis is the layout JavaScript's Date.toISOString produces, which is
// what existing cities servers store.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// cityJSON is the wire shape of a city. Field names must match the existing
// server exactly.
type cityJSON struct {
	ID        flexID        `json:"id,omitempty"`
	CityName  string        `json:"cityName"`
	Country   string        `json:"country"`
	Emoji     string        `json:"emoji"`
	Date      string        `json:"date"`
	Notes     string        `json:"notes,omitempty"`
	Latitude  *flexFloat    `json:"latitude,omitempty"`
	Longitude *flexFloat    `json:"longitude,omitempty"`
	Position  *positionJSON `json:"position,omitempty"`
}

type positionJSON struct {
	Lat flexFloat `json:"lat"`
	Lng flexFloat `json:"lng"`
}

// flexID accepts both JSON strings and numbers; json-server style backends
// hand out either.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = flexID(n.String())
		return nil
	}
}

// flexFloat accepts a JSON number or a numeric string. Browser forms post
// coordinates taken from URL query parameters, which arrive as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// toDomain converts the wire representation to a domain.City.
// Top-level latitude/longitude fill the position when "position" is absent.
func (c cityJSON) toDomain() (domain.City, error) {
	date, err := parseDate(c.Date)
	if err != nil {
		return domain.City{}, err
	}
	city := domain.City{
		ID:       domain.CityID(c.ID),
		CityName: c.CityName,
		Country:  c.Country,
		Emoji:    c.Emoji,
		Date:     date,
		Notes:    c.Notes,
	}
	switch {
	case c.Position != nil:
		city.Position = domain.Position{Lat: float64(c.Position.Lat), Lng: float64(c.Position.Lng)}
	case c.Latitude != nil && c.Longitude != nil:
		city.Position = domain.Position{Lat: float64(*c.Latitude), Lng: float64(*c.Longitude)}
	}
	return city, nil
}

// newCityToJSON builds the POST body. Both coordinate forms are written so
// that either kind of consumer can read the record back.
func newCityToJSON(nc domain.NewCity) cityJSON {
	lat, lng := flexFloat(nc.Position.Lat), flexFloat(nc.Position.Lng)
	return cityJSON{
		CityName:  nc.CityName,
		Country:   nc.Country,
		Emoji:     nc.Emoji,
		Date:      formatDate(nc.Date),
		Notes:     nc.Notes,
		Latitude:  &lat,
		Longitude: &lng,
		Position:  &positionJSON{Lat: lat, Lng: lng},
	}
}

// parseDate accepts RFC 3339 timestamps (with or without fractional seconds)
// and plain "2006-01-02" dates. An empty string yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: not RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// formatDate returns "" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoMillis)
}
