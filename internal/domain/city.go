// Package domain contains the core data types for the WorldWise application.
// This package has zero external dependencies and is imported by every other
// internal package (citiesapi, store, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// CityID is the opaque identifier the cities API assigns to a City.
// The API may send it as a JSON string or number; clients normalise it to text.
type CityID string

// Position is a geographic coordinate pair in decimal degrees.
type Position struct {
	Lat float64
	Lng float64
}

// City is a visited-location record. The cities API owns it; the store holds
// a cached copy.
type City struct {
	ID       CityID
	CityName string
	Country  string
	Emoji    string
	Date     time.Time // visit date
	Notes    string
	Position Position
}

// NewCity carries the fields of a City the client supplies on creation.
// The API assigns the ID.
//
// CountryCode is optional; when Emoji is empty it is used to derive the
// country's flag (see FlagEmoji).
type NewCity struct {
	CityName    string
	Country     string
	CountryCode string
	Emoji       string
	Date        time.Time
	Notes       string
	Position    Position
}

// Validate enforces the fields a city cannot be created without.
//   - CityName and Country must be non-empty (whitespace-only is rejected).
//   - Position must lie within latitude [-90, 90] and longitude [-180, 180].
func (c NewCity) Validate() error {
	if strings.TrimSpace(c.CityName) == "" {
		return fmt.Errorf("%w: cityName is required", ErrValidation)
	}
	if strings.TrimSpace(c.Country) == "" {
		return fmt.Errorf("%w: country is required", ErrValidation)
	}
	if c.Position.Lat < -90 || c.Position.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if c.Position.Lng < -180 || c.Position.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	return nil
}

// WithDerivedEmoji returns c with Emoji filled from CountryCode when Emoji is
// empty and the code is a valid two-letter country code.
func (c NewCity) WithDerivedEmoji() NewCity {
	if c.Emoji == "" && c.CountryCode != "" {
		c.Emoji = FlagEmoji(c.CountryCode)
	}
	return c
}

// FlagEmoji converts an ISO 3166-1 alpha-2 country code ("PT", "de") to its
// flag emoji made of two regional indicator symbols.
// Returns "" for anything that is not exactly two ASCII letters.
func FlagEmoji(countryCode string) string {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
