package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrCancelled    = errors.New("cancelled")
)

// APIError represents a non-2xx response from the chat service.
// The service answers errors as RFC 7807 problem documents; Detail carries
// the human-readable part.
type APIError struct {
	Status int    // HTTP status code
	Detail string // Human-readable error message
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Detail)
}

// Is allows errors.Is() to match sentinel errors by status class
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}
