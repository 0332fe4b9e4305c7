// Package errs holds the error kinds shared across the storefront domain.
// Packages derive specific sentinels from these so callers can match either
// the specific error or its kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
)

type validationError struct{ msg string }

func (e *validationError) Error() string        { return "validation: " + e.msg }
func (e *validationError) Unwrap() error        { return ErrValidation }
func (e *validationError) Message() string      { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

// Validation reports malformed or missing input.
func Validation(msg string) error {
	return &validationError{msg: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// Message returns the caller-facing text of a validation error, or "" if err is not one.
func Message(err error) string {
	var v *validationError
	if errors.As(err, &v) {
		return v.msg
	}
	return ""
}
