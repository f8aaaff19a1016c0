package manager

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a client input error.
type Kind string

const (
	KindInvalidMode           Kind = "InvalidMode"
	KindMissingContextLength  Kind = "MissingContextLength"
	KindUnknownModel          Kind = "UnknownModel"
	KindContextLengthExceeded Kind = "ContextLengthExceeded"
	KindModelUnavailable      Kind = "ModelUnavailable"
	KindDuplicateAdapter      Kind = "DuplicateAdapter"
	KindInvalidShardCount     Kind = "InvalidShardCount"
	KindInvalidAdapter        Kind = "InvalidAdapter"
)

// ValidationError is returned when a request is rejected before any mutation.
type ValidationError struct {
	Kind  Kind
	Model string
	msg   string
}

func (e *ValidationError) Error() string { return e.msg }

// StatusCode maps every validation error to 400.
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func newValidation(kind Kind, model, format string, a ...any) *ValidationError {
	return &ValidationError{Kind: kind, Model: model, msg: fmt.Sprintf(format, a...)}
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// KindOf returns the validation kind of err, or "" when err is not a validation error.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// persistError signals that a validated mutation could not be written.
// State is unchanged when it is returned.
type persistError struct {
	doc string
	err error
}

func (e persistError) Error() string { return "persist " + e.doc + ": " + e.err.Error() }

func (e persistError) Unwrap() error { return e.err }

// IsPersistence reports whether err is a storage failure (return 500).
func IsPersistence(err error) bool {
	var pe persistError
	return errors.As(err, &pe)
}
