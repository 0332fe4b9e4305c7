package payment

import (
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

var ErrInvalidTransition = fmt.Errorf("payment: invalid status transition: %w", errs.ErrInvalidState)

// Method tags how the customer intends to pay. No gateway is involved.
type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodDebitCard  Method = "debit_card"
	MethodPayPal     Method = "paypal"
	MethodPix        Method = "pix"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodPix:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is allowed.
func (s Status) Transition(next Status) (Status, error) {
	if !next.Valid() {
		return s, errs.Validationf("unknown payment status %q", string(next))
	}
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}
