package httppresentation

import (
	"errors"
	"net/http"

	appauth "github.com/Zhima-Mochi/storefront/internal/application/auth"
	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

const internalErrorMessage = "internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

// publicErrors is matched in order; specific sentinels precede their kinds.
var publicErrors = []struct {
	err    error
	status int
	msg    string
}{
	{appauth.ErrMissingToken, http.StatusUnauthorized, "missing bearer token"},
	{appauth.ErrInvalidToken, http.StatusUnauthorized, "invalid or expired token"},
	{appauth.ErrWrongPassword, http.StatusUnauthorized, "current password is incorrect"},
	{user.ErrBadCredentials, http.StatusUnauthorized, "invalid email or password"},
	{user.ErrInactive, http.StatusUnauthorized, "account is disabled"},
	{user.ErrNotAdmin, http.StatusForbidden, "admin privileges required"},
	{user.ErrEmailTaken, http.StatusConflict, "email already registered"},
	{user.ErrNotFound, http.StatusNotFound, "user not found"},
	{catalog.ErrNotFound, http.StatusNotFound, "product not found"},
	{cart.ErrItemNotFound, http.StatusNotFound, "item not found in cart"},
	{cart.ErrNotFound, http.StatusNotFound, "cart not found"},
	{order.ErrNotFound, http.StatusNotFound, "order not found"},
	{order.ErrForbidden, http.StatusForbidden, "access denied"},
	{order.ErrEmptyCart, http.StatusBadRequest, "cart is empty"},
	{order.ErrNotPending, http.StatusBadRequest, "only pending orders can be cancelled"},
	{order.ErrInvalidStateTransition, http.StatusBadRequest, "invalid order status transition"},
	{payment.ErrInvalidTransition, http.StatusBadRequest, "invalid payment status transition"},
	{order.ErrDuplicateKey, http.StatusConflict, "idempotency key already used"},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{errs.ErrForbidden, http.StatusForbidden, "forbidden"},
	{errs.ErrNotFound, http.StatusNotFound, "not found"},
	{errs.ErrConflict, http.StatusConflict, "conflict"},
	{errs.ErrEmptyCart, http.StatusBadRequest, "cart is empty"},
	{errs.ErrInvalidState, http.StatusBadRequest, "invalid state"},
}

// classify maps an error to a status code and a message safe to show callers.
func classify(err error) (int, string) {
	if errors.Is(err, errs.ErrValidation) {
		msg := errs.Message(err)
		if msg == "" {
			msg = "invalid request"
		}
		return http.StatusBadRequest, msg
	}
	var stock *catalog.InsufficientStockError
	if errors.As(err, &stock) {
		label := stock.Name
		if label == "" {
			label = stock.ProductID
		}
		return http.StatusBadRequest, "insufficient stock for " + label
	}
	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			return pe.status, pe.msg
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger(r).Error("http_request_failed", observability.Err(err))
	} else {
		h.logger(r).Debug("http_request_rejected",
			observability.F("status", status),
			observability.Err(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
