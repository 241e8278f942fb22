package store

import "github.com/pkordes/worldwise/internal/domain"

// Action describes one requested state transition.
// The set is closed: only the six types in this file implement it.
type Action interface {
	// Kind names the transition, e.g. "cities/loaded". Used in logs.
	Kind() string
	isAction()
}

// LoadingStarted marks the beginning of an operation.
type LoadingStarted struct{}

// CitiesLoaded replaces the whole collection.
type CitiesLoaded struct {
	Cities []domain.City
}

// CityLoaded sets the current city.
type CityLoaded struct {
	City domain.City
}

// CityCreated appends a city and makes it current.
type CityCreated struct {
	City domain.City
}

// CityDeleted removes the city with ID and clears the current city.
type CityDeleted struct {
	ID domain.CityID
}

// Rejected records a failed operation.
type Rejected struct {
	Message string
}

func (LoadingStarted) Kind() string { return "loading" }
func (CitiesLoaded) Kind() string   { return "cities/loaded" }
func (CityLoaded) Kind() string     { return "city/loaded" }
func (CityCreated) Kind() string    { return "city/created" }
func (CityDeleted) Kind() string    { return "city/deleted" }
func (Rejected) Kind() string       { return "rejected" }

func (LoadingStarted) isAction() {}
func (CitiesLoaded) isAction()   {}
func (CityLoaded) isAction()     {}
func (CityCreated) isAction()    {}
func (CityDeleted) isAction()    {}
func (Rejected) isAction()       {}
