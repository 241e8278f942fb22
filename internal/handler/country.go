package handler

import (
	"net/http"

	"github.com/pkordes/worldwise/internal/domain"
)

// EmptyCountriesMessage is shown while the collection holds no cities.
const EmptyCountriesMessage = "Add your first city by clicking on a city on the map"

// Country is the JSON shape of one derived country.
type Country struct {
	Country string `json:"country"`
	Emoji   string `json:"emoji"`
}

// CountriesResponse is the body of GET /app/countries.
type CountriesResponse struct {
	Countries []Country `json:"countries"`
	IsLoading bool      `json:"isLoading"`
	Message   string    `json:"message,omitempty"`
}

// ListCountries handles GET /app/countries: one entry per distinct country
// in the loaded collection, first city's emoji wins.
func (s *Server) ListCountries(w http.ResponseWriter, r *http.Request) {
	snap := s.cities.Snapshot()
	countries := domain.Countries(snap.Cities)

	resp := CountriesResponse{
		Countries: make([]Country, len(countries)),
		IsLoading: snap.Loading,
	}
	for i, c := range countries {
		resp.Countries[i] = Country{Country: c.Country, Emoji: c.Emoji}
	}
	if len(countries) == 0 && !snap.Loading {
		resp.Message = EmptyCountriesMessage
	}
	writeJSON(w, r, http.StatusOK, resp)
}
