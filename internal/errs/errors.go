package errs

import (
	"errors"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrValidation             = errors.New("validation failed")
	ErrUnknownTemplate        = errors.New("unknown template")
	ErrPreferencesUnavailable = errors.New("preferences unavailable")
)

// ValidationError carries the field messages of a rejected write.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
