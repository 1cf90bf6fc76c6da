// Package apperr holds the error taxonomy shared by the access core and the
// HTTP layer. Components wrap one of the sentinels below so handlers can map
// any failure to a status code with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated covers missing, invalid, expired and revoked
	// credentials alike.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	// ErrNotFound is for admin operations naming a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks a transient backing-store fault. Safe to retry.
	ErrUnavailable      = errors.New("backing store unavailable")
	ErrMalformedRequest = errors.New("malformed request")
)

// Status maps an error onto the HTTP status a handler should answer with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code is the stable machine-readable value placed in error response bodies.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrMalformedRequest):
		return "bad_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "service_unavailable"
	default:
		return "internal_server_error"
	}
}
