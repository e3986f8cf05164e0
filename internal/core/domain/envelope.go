package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed Result.
type ErrorKind string

// Error kinds surfaced in envelopes.
const (
	ErrorKindNone         ErrorKind = ""
	ErrorKindValidation   ErrorKind = "validation"
	ErrorKindConnectivity ErrorKind = "connectivity"
	ErrorKindConflict     ErrorKind = "conflict"
	ErrorKindNotFound     ErrorKind = "not_found"
	ErrorKindInternal     ErrorKind = "internal"
)

// ClassifyError maps an error onto the envelope taxonomy.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrInvalidInput):
		return ErrorKindValidation
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return ErrorKindConflict
	case errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrUnauthorized):
		return ErrorKindConnectivity
	default:
		return ErrorKindInternal
	}
}

// Result is the response envelope returned by every public CRUD, analytics,
// ETL and administration operation. Callers must inspect Success.
type Result[T any] struct {
	// Success is true when Data is valid.
	Success bool `json:"success"`

	// Data is the payload. Zero value on failure.
	Data T `json:"data,omitempty"`

	// Error is the underlying error text on failure.
	Error string `json:"error,omitempty"`

	// ErrorKind classifies the failure.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// err keeps the original error for errors.Is checks in-process.
	err error
}

// Ok builds a successful envelope.
func Ok[T any](data T, format string, args ...any) Result[T] {
	return Result[T]{
		Success: true,
		Data:    data,
		Message: fmt.Sprintf(format, args...),
	}
}

// Fail builds a failed envelope from err.
func Fail[T any](err error, format string, args ...any) Result[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[T]{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: ClassifyError(err),
		Message:   fmt.Sprintf(format, args...),
		err:       err,
	}
}

// Err returns the failure as an error, or nil on success.
// The returned error wraps the original so errors.Is keeps working.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return fmt.Errorf("%s: %w", r.Message, r.err)
	}
	return fmt.Errorf("%s: %s", r.Message, r.Error)
}

// Is reports whether the failure matches target.
func (r Result[T]) Is(target error) bool {
	return !r.Success && r.err != nil && errors.Is(r.err, target)
}

// Forward re-types a failed envelope so it can be returned by an
// operation with a different payload type.
func Forward[T, U any](r Result[U]) Result[T] {
	return Result[T]{
		Success:   false,
		Error:     r.Error,
		ErrorKind: r.ErrorKind,
		Message:   r.Message,
		err:       r.err,
	}
}
