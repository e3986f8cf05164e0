package couchdb

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// APIError represents a failed CouchDB call.
type APIError struct {
	// StatusCode is the HTTP status reported by kivik. Transport failures
	// carry a 5xx code or none.
	StatusCode int
	Operation  string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("couchdb: %s: %d: %v", e.Operation, e.StatusCode, e.Err)
}

// Unwrap exposes both the domain error for the status code and the
// underlying kivik error.
func (e *APIError) Unwrap() []error {
	if sentinel := statusError(e.StatusCode); sentinel != nil {
		return []error{sentinel, e.Err}
	}
	return []error{e.Err}
}

// statusError maps an HTTP status onto the domain error taxonomy.
func statusError(code int) error {
	switch {
	case code == http.StatusBadRequest:
		return domain.ErrInvalidInput
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return domain.ErrUnauthorized
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code == http.StatusConflict:
		return domain.ErrConflict
	case code == http.StatusPreconditionFailed:
		return domain.ErrAlreadyExists
	case code == 0, code >= http.StatusInternalServerError:
		return domain.ErrUnavailable
	default:
		return nil
	}
}

// bulkErrorCode names a per-document bulk failure the way CouchDB does.
func bulkErrorCode(code int) string {
	switch code {
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		return "error"
	}
}

// IsConflict checks if the error is a revision conflict.
func IsConflict(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusConflict
	}
	return false
}

// IsNotFound checks if the error indicates a missing document or database.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if the server rejected the credentials.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
