package httppresentation

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", fmt.Errorf("wrapped: %w", errs.Validation("email is required")), http.StatusBadRequest, "email is required"},
		{"stock", &catalog.InsufficientStockError{ProductID: "p1", Name: "Mug"}, http.StatusBadRequest, "insufficient stock for Mug"},
		{"stock without name", &catalog.InsufficientStockError{ProductID: "p1"}, http.StatusBadRequest, "insufficient stock for p1"},
		{"specific before kind", fmt.Errorf("tx: %w", order.ErrNotPending), http.StatusBadRequest, "only pending orders can be cancelled"},
		{"forbidden", user.ErrNotAdmin, http.StatusForbidden, "admin privileges required"},
		{"generic kind", fmt.Errorf("x: %w", errs.ErrNotFound), http.StatusNotFound, "not found"},
		{"internal detail hidden", errors.New("mongo: connection refused 10.0.0.3"), http.StatusInternalServerError, internalErrorMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, msg)
		})
	}
}
