// Package apperr defines the error categories shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Categories. Concrete errors wrap one of these with %w so callers can
// classify them with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid input")
	ErrExternal     = errors.New("external dependency failed")
)

// HTTPStatus maps an error to the status code returned to API clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
