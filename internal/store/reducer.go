package store

import (
	"fmt"
	"slices"

	"github.com/pkordes/worldwise/internal/domain"
)

// State is everything the store holds.
// Error is "" when no operation has failed. It is never reset by a later
// success; only another Rejected overwrites it.
type State struct {
	Cities  []domain.City
	Current *domain.City // nil when no city is current
	Loading bool
	Error   string
}

// Reduce returns the state that results from applying a to s.
// It never mutates s: slices and pointers reachable from s are left intact.
// Fields an action does not name are carried over unchanged.
//
// Reduce panics on a nil Action or a type outside the closed set; both are
// defects in the caller.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoadingStarted:
		s.Loading = true
	case CitiesLoaded:
		s.Loading = false
		s.Cities = slices.Clone(a.Cities)
	case CityLoaded:
		s.Loading = false
		s.Current = ptr(a.City)
	case CityCreated:
		s.Loading = false
		s.Cities = append(slices.Clip(s.Cities), a.City)
		s.Current = ptr(a.City)
	case CityDeleted:
		s.Loading = false
		s.Cities = slices.DeleteFunc(slices.Clone(s.Cities), func(c domain.City) bool {
			return c.ID == a.ID
		})
		s.Current = nil
	case Rejected:
		s.Loading = false
		s.Error = a.Message
	default:
		panic(fmt.Sprintf("store: unknown action %T", a))
	}
	return s
}

// clone returns a deep copy of s that shares no memory with it.
func (s State) clone() State {
	out := s
	out.Cities = slices.Clone(s.Cities)
	if s.Current != nil {
		out.Current = ptr(*s.Current)
	}
	return out
}

func ptr(c domain.City) *domain.City {
	return &c
}
