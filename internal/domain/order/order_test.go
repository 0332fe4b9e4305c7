package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

func checkout() Checkout {
	return Checkout{
		ShippingAddress: address.Address{Street: "Rua A, 1", City: "São Paulo", ZipCode: "01000-000", Country: "BR"},
		PaymentMethod:   payment.MethodPix,
	}
}

func newOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("o1", "u1", []Item{
		{ProductID: "a", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{ProductID: "b", Quantity: 1, Price: decimal.RequireFromString("5.00")},
	}, checkout())
	require.NoError(t, err)
	return o
}

func TestNewComputesTotalAndDefaults(t *testing.T) {
	o := newOrder(t)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, payment.StatusPending, o.PaymentStatus)
	assert.True(t, o.OwnedBy("u1"))
	assert.False(t, o.OwnedBy("u2"))
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Checkout)
		items   []Item
		wantErr error
	}{
		{name: "missing address", mutate: func(c *Checkout) { c.ShippingAddress = address.Address{} }, wantErr: errs.ErrValidation},
		{name: "partial address", mutate: func(c *Checkout) { c.ShippingAddress.City = "" }, wantErr: errs.ErrValidation},
		{name: "missing method", mutate: func(c *Checkout) { c.PaymentMethod = "" }, wantErr: errs.ErrValidation},
		{name: "unknown method", mutate: func(c *Checkout) { c.PaymentMethod = "cash" }, wantErr: errs.ErrValidation},
		{name: "no items", mutate: func(*Checkout) {}, items: []Item{}, wantErr: errs.ErrEmptyCart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := checkout()
			tc.mutate(&c)
			items := tc.items
			if items == nil {
				items = []Item{{ProductID: "a", Quantity: 1, Price: decimal.NewFromInt(1)}}
			}
			_, err := New("o1", "u1", items, c)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAdvanceFollowsLifecycle(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			o := newOrder(t)
			o.Status = tc.from
			err := o.Advance(tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, o.Status)
				return
			}
			assert.ErrorIs(t, err, errs.ErrInvalidState)
			assert.Equal(t, tc.from, o.Status)
		})
	}
}

func TestCancelOnlyFromPending(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.Cancel())
	assert.Equal(t, StatusCancelled, o.Status)

	err := o.Cancel()
	assert.ErrorIs(t, err, ErrNotPending)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestSetPaymentStatus(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.SetPaymentStatus(payment.StatusCompleted))
	require.NoError(t, o.SetPaymentStatus(payment.StatusRefunded))
	assert.ErrorIs(t, o.SetPaymentStatus(payment.StatusPending), errs.ErrInvalidState)
	assert.ErrorIs(t, o.SetPaymentStatus("bogus"), errs.ErrValidation)
	assert.Equal(t, payment.StatusRefunded, o.PaymentStatus)
}

func TestCreatedEventCarriesLines(t *testing.T) {
	e := NewOrderCreatedEvent(newOrder(t))
	assert.Equal(t, "order.created", e.EventName())
	assert.Equal(t, "25.00", e.TotalAmount)
	assert.Equal(t, []string{"a", "b"}, ProductIDs(e.Items))
}
