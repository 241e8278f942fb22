package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/worldwise/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "city_name", "country", "emoji", "date", "lat", "lng", "notes",
}

// ExportRow is one city in the flat export.
type ExportRow struct {
	ID       string  `json:"id"`
	CityName string  `json:"cityName"`
	Country  string  `json:"country"`
	Emoji    string  `json:"emoji"`
	Date     string  `json:"date,omitempty"` // "2006-01-02", empty when unknown
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Notes    string  `json:"notes,omitempty"`
}

// GetExport handles GET /app/export.
// It exports what the store currently holds; it does not trigger a load.
// Use ?format=csv to receive CSV; default is JSON. Unknown formats are a 400.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	rows := exportRows(s.cities.Snapshot().Cities)

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, r, http.StatusOK, rows)
	case "csv":
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="cities.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		_, _ = body.WriteTo(w)
	default:
		writeJSON(w, r, http.StatusBadRequest, requestBody("format must be json or csv"))
	}
}

// exportRows flattens cities in collection order.
// Always returns a non-nil slice so an empty export encodes as [].
func exportRows(cities []domain.City) []ExportRow {
	out := make([]ExportRow, 0, len(cities))
	for _, c := range cities {
		out = append(out, ExportRow{
			ID:       string(c.ID),
			CityName: c.CityName,
			Country:  c.Country,
			Emoji:    c.Emoji,
			Date:     formatOptionalDate(c.Date),
			Lat:      c.Position.Lat,
			Lng:      c.Position.Lng,
			Notes:    c.Notes,
		})
	}
	return out
}

// buildCSV encodes rows as CSV with a header line.
func buildCSV(rows []ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write([]string{
			r.ID,
			r.CityName,
			r.Country,
			r.Emoji,
			r.Date,
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lng, 'f', -1, 64),
			r.Notes,
		})
	}
	w.Flush()
	return &buf
}

// formatOptionalDate returns the calendar date of t, or "" for the zero time.
func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
