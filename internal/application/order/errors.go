package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

var (
	errMissingUser = errs.Validation("user id is required")
	errMissingID   = errs.Validation("order id is required")
)

// failureStatus maps an error to the status text of the use_case_done line.
func failureStatus(err error) string {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, errs.ErrEmptyCart):
		return "EMPTY_CART"
	case errors.Is(err, errs.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, errs.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, errs.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, errs.ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, errs.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "TX_FAILED"
	}
}
