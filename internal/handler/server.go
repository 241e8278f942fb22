// Package handler implements the HTTP pages of WorldWise: JSON views over the
// city store and the derived country list.
// All handlers are methods on Server. They are split into files by page
// (health.go, city.go, country.go, export.go) but share the same Server struct.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/worldwise/internal/domain"
	"github.com/pkordes/worldwise/internal/store"
)

// CityStore is the store surface the pages depend on. *store.Store satisfies
// it; handler tests inject a mock.
type CityStore interface {
	Snapshot() store.State
	GetByID(ctx context.Context, id domain.CityID) error
	Create(ctx context.Context, nc domain.NewCity) error
	Delete(ctx context.Context, id domain.CityID) error
}

// Server holds the dependencies shared by every page.
type Server struct {
	cities CityStore
}

// NewServer constructs the Server. The store handle is mandatory: a nil
// CityStore is a wiring defect and panics here rather than on first request.
func NewServer(cities CityStore) *Server {
	if cities == nil {
		panic("handler: NewServer called without a CityStore")
	}
	return &Server{cities: cities}
}

// Routes returns a router with every page mounted.
// Middleware is left to the caller so tests can exercise handlers bare.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Route("/app", func(r chi.Router) {
		r.Get("/cities", s.ListCities)
		r.Post("/cities", s.CreateCity)
		r.Get("/cities/{id}", s.GetCity)
		r.Delete("/cities/{id}", s.DeleteCity)
		r.Get("/countries", s.ListCountries)
		r.Get("/export", s.GetExport)
	})
	return r
}
