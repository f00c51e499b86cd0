package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services and clients wrap these so handlers can map them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("backend unavailable")
)
