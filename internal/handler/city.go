package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/worldwise/internal/domain"
	"github.com/pkordes/worldwise/internal/store"
)

// City is the JSON shape of a city on every page. Field names follow the
// cities API so a browser client can use either interchangeably.
type City struct {
	ID       string     `json:"id"`
	CityName string     `json:"cityName"`
	Country  string     `json:"country"`
	Emoji    string     `json:"emoji"`
	Date     *time.Time `json:"date,omitempty"`
	Notes    string     `json:"notes,omitempty"`
	Position Position   `json:"position"`
}

// Position is a lat/lng pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CitiesResponse is the body of GET /app/cities.
type CitiesResponse struct {
	Cities    []City `json:"cities"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// CurrentCityResponse is the body of GET /app/cities/{id}.
type CurrentCityResponse struct {
	CurrentCity *City  `json:"currentCity"`
	IsLoading   bool   `json:"isLoading"`
	Error       string `json:"error,omitempty"`
}

// CreateCityRequest is the body of POST /app/cities.
// Date defaults to the time of the request. Emoji, when empty, is derived
// from CountryCode.
type CreateCityRequest struct {
	CityName    string     `json:"cityName"`
	Country     string     `json:"country"`
	CountryCode string     `json:"countryCode,omitempty"`
	Emoji       string     `json:"emoji,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Position    Position   `json:"position"`
}

// ListCities handles GET /app/cities.
func (s *Server) ListCities(w http.ResponseWriter, r *http.Request) {
	snap := s.cities.Snapshot()
	data := make([]City, len(snap.Cities))
	for i, c := range snap.Cities {
		data[i] = cityToResponse(c)
	}
	writeJSON(w, r, http.StatusOK, CitiesResponse{
		Cities:    data,
		IsLoading: snap.Loading,
		Error:     snap.Error,
	})
}

// GetCity handles GET /app/cities/{id}.
// It asks the store to load the city (a no-op when it is already current)
// and renders the resulting current city.
func (s *Server) GetCity(w http.ResponseWriter, r *http.Request) {
	id := domain.CityID(chi.URLParam(r, "id"))
	if err := s.cities.GetByID(r.Context(), id); err != nil {
		writeRejection(w, r, err)
		return
	}

	snap := s.cities.Snapshot()
	resp := CurrentCityResponse{IsLoading: snap.Loading, Error: snap.Error}
	if snap.Current != nil {
		c := cityToResponse(*snap.Current)
		resp.CurrentCity = &c
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// CreateCity handles POST /app/cities.
func (s *Server) CreateCity(w http.ResponseWriter, r *http.Request) {
	var req CreateCityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, requestBody("request body too large"))
			return
		}
		writeJSON(w, r, http.StatusBadRequest, requestBody("request body must be a JSON city"))
		return
	}

	nc := domain.NewCity{
		CityName:    req.CityName,
		Country:     req.Country,
		CountryCode: req.CountryCode,
		Emoji:       req.Emoji,
		Notes:       req.Notes,
		Position:    domain.Position{Lat: req.Position.Lat, Lng: req.Position.Lng},
	}.WithDerivedEmoji()
	if req.Date != nil {
		nc.Date = *req.Date
	} else {
		nc.Date = time.Now().UTC()
	}
	if err := nc.Validate(); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, validationBody(err))
		return
	}

	if err := s.cities.Create(r.Context(), nc); err != nil {
		writeRejection(w, r, err)
		return
	}

	snap := s.cities.Snapshot()
	if snap.Current == nil {
		// Another operation cleared the current city between Create and Snapshot.
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, r, http.StatusCreated, cityToResponse(*snap.Current))
}

// DeleteCity handles DELETE /app/cities/{id}.
func (s *Server) DeleteCity(w http.ResponseWriter, r *http.Request) {
	if err := s.cities.Delete(r.Context(), domain.CityID(chi.URLParam(r, "id"))); err != nil {
		writeRejection(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeRejection maps a store error to 502 with the store's fixed message, or
// to 409 when the operation's completion was dropped as stale. Anything else
// is unexpected and becomes a 500.
func writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrStale) {
		writeJSON(w, r, http.StatusConflict, conflictBody())
		return
	}
	var rej *store.Rejection
	if errors.As(err, &rej) {
		writeJSON(w, r, http.StatusBadGateway, upstreamBody(rej.Message))
		return
	}
	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal", Message: "internal error"}})
}

// cityToResponse converts a domain.City to its JSON shape.
// A zero Date becomes nil so it is omitted rather than sent as year 1.
func cityToResponse(c domain.City) City {
	out := City{
		ID:       string(c.ID),
		CityName: c.CityName,
		Country:  c.Country,
		Emoji:    c.Emoji,
		Notes:    c.Notes,
		Position: Position{Lat: c.Position.Lat, Lng: c.Position.Lng},
	}
	if !c.Date.IsZero() {
		d := c.Date
		out.Date = &d
	}
	return out
}
