package domain

import "errors"

// ErrNotFound is what a cities API 404 unwraps to (see citiesapi.StatusError).
// The store reports it like any other failed call, as a rejection.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing city name, latitude out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
