package service

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

// ValidationError names the offending field. errors.Is(err, ErrInvalidInput) holds for it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
