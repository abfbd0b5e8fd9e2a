package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across both store backends.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")

	// ErrPersistenceFailed is returned when no active store accepted a write.
	ErrPersistenceFailed = errors.New("persistence failed in every active store")
)

// ValidationError reports missing or malformed input. It is raised before
// any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ResolutionError means the relational user id of the caller could not be
// determined. Unlike store failures it propagates and fails the request,
// since no operation can proceed without an owner identity.
type ResolutionError struct {
	Reason string
}

func (e *ResolutionError) Error() string {
	return "identity resolution failed: " + e.Reason
}

// IsResolution reports whether err is (or wraps) a ResolutionError.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
