package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with context; services turn them into envelopes.
var (
	// ErrNotFound indicates an identifier does not resolve to a document.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a document with the same identifier exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed input caught before any remote call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a stale revision token on update or delete.
	// Callers may re-fetch the document and retry with the new token.
	ErrConflict = errors.New("revision conflict")

	// ErrUnavailable indicates the database could not be reached.
	ErrUnavailable = errors.New("database unavailable")

	// ErrUnauthorized indicates the database rejected the credentials.
	ErrUnauthorized = errors.New("authentication rejected")

	// ErrNotImplemented indicates functionality is not available
	// on the configured backend.
	ErrNotImplemented = errors.New("not implemented")

	// ErrViewNotReady indicates a view index is still being built.
	ErrViewNotReady = errors.New("view index not yet ready")
)
