package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

var (
	ErrNotFound               = fmt.Errorf("order: not found: %w", errs.ErrNotFound)
	ErrForbidden              = fmt.Errorf("order: not owned by caller: %w", errs.ErrForbidden)
	ErrEmptyCart              = fmt.Errorf("order: cart is empty: %w", errs.ErrEmptyCart)
	ErrNotPending             = fmt.Errorf("order: only pending orders can be cancelled: %w", errs.ErrInvalidState)
	ErrInvalidStateTransition = fmt.Errorf("order: invalid status transition: %w", errs.ErrInvalidState)
	ErrDuplicateKey           = fmt.Errorf("order: idempotency key already used: %w", errs.ErrConflict)
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	_, ok := states[s]
	return ok
}

// Item is a line captured at checkout. It never changes afterwards.
type Item struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string
	UserID          string
	Items           []Item
	TotalAmount     decimal.Decimal
	ShippingAddress address.Address
	PaymentMethod   payment.Method
	PaymentStatus   payment.Status
	Status          Status
	TrackingNumber  string
	Notes           string
	IdempotencyKey  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Checkout holds the caller-supplied part of a new order.
type Checkout struct {
	ShippingAddress address.Address
	PaymentMethod   payment.Method
	IdempotencyKey  string
}

func (c Checkout) Validate() error {
	if c.ShippingAddress.IsZero() {
		return errs.Validation("shipping address is required")
	}
	if err := c.ShippingAddress.ValidateShipping(); err != nil {
		return err
	}
	if c.PaymentMethod == "" {
		return errs.Validation("payment method is required")
	}
	if !c.PaymentMethod.Valid() {
		return errs.Validationf("payment method %q is not supported", string(c.PaymentMethod))
	}
	return nil
}

func New(id, userID string, items []Item, c Checkout) (*Order, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, errs.Validationf("item %s has quantity %d", it.ProductID, it.Quantity)
		}
		total = total.Add(it.Subtotal())
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		Items:           append([]Item(nil), items...),
		TotalAmount:     total,
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
		PaymentStatus:   payment.StatusPending,
		Status:          StatusPending,
		IdempotencyKey:  c.IdempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// Cancel moves a pending order to cancelled.
func (o *Order) Cancel() error {
	if o.Status != StatusPending {
		return fmt.Errorf("%w (status %s)", ErrNotPending, o.Status)
	}
	return o.Advance(StatusCancelled)
}

// Advance moves the order along its lifecycle graph.
func (o *Order) Advance(next Status) error {
	if !next.Valid() {
		return errs.Validationf("unknown order status %q", string(next))
	}
	st, err := o.state().To(next)
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, o.Status, next)
	}
	o.Status = st.Status()
	o.touch()
	return nil
}

func (o *Order) SetPaymentStatus(next payment.Status) error {
	st, err := o.PaymentStatus.Transition(next)
	if err != nil {
		return err
	}
	o.PaymentStatus = st
	o.touch()
	return nil
}

func (o *Order) SetTracking(number string) {
	o.TrackingNumber = number
	o.touch()
}

func (o *Order) SetNotes(notes string) {
	o.Notes = notes
	o.touch()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}

func (o *Order) state() OrderState {
	if st, ok := states[o.Status]; ok {
		return st
	}
	return terminalState{status: o.Status}
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
