package order_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

func TestCreateOrderCommitsCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "A", "12.00", 5)
	f.seedProduct(t, "B", "7.00", 1)
	f.seedCart(t, "u1", line{"A", 2, "10.00"}, line{"B", 1, "5.00"})

	res, err := f.create.Execute(ctx, checkoutInput("u1"))
	require.NoError(t, err)
	require.False(t, res.Replayed)

	o := res.Order
	assert.True(t, o.TotalAmount.Equal(dec("25.00")), "total %s", o.TotalAmount)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, payment.StatusPending, o.PaymentStatus)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].Price.Equal(dec("10.00")), "cart price is kept, not catalog price")

	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 0, f.stock(t, "B"))

	c := f.cart(t, "u1")
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.TotalItems())
	assert.True(t, c.TotalPrice().IsZero())

	created := f.pub.named(order.OrderCreatedEvent{}.EventName())
	require.Len(t, created, 1)
	assert.Equal(t, o.ID, created[0].(order.OrderCreatedEvent).OrderID)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)
	f.seedProduct(t, "B", "5.00", 0)
	f.seedCart(t, "u1", line{"A", 2, "10.00"}, line{"B", 1, "5.00"})

	_, err := f.create.Execute(context.Background(), checkoutInput("u1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInsufficientStock)
	var stockErr *catalog.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "B", stockErr.ProductID)

	assert.Equal(t, 5, f.stock(t, "A"), "earlier decrement is undone")
	assert.Equal(t, 0, f.stock(t, "B"))
	assert.Equal(t, 3, f.cart(t, "u1").TotalItems())
	assert.Zero(t, f.orderCount(t, "u1"))
	assert.Empty(t, f.pub.named(order.OrderCreatedEvent{}.EventName()))
}

func TestCreateOrderDeletedProductIsInsufficient(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)
	f.seedCart(t, "u1", line{"A", 1, "10.00"}, line{"gone", 1, "3.00"})

	_, err := f.create.Execute(context.Background(), checkoutInput("u1"))
	var stockErr *catalog.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "gone", stockErr.ProductID)
	assert.Equal(t, 0, stockErr.Available)
	assert.Equal(t, 5, f.stock(t, "A"))
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)

	_, err := f.create.Execute(context.Background(), checkoutInput("nobody"))
	assert.ErrorIs(t, err, order.ErrEmptyCart)
	assert.ErrorIs(t, err, errs.ErrEmptyCart)

	f.seedCart(t, "u1")
	_, err = f.create.Execute(context.Background(), checkoutInput("u1"))
	assert.ErrorIs(t, err, errs.ErrEmptyCart)

	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Zero(t, f.orderCount(t, "u1"))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)
	f.seedCart(t, "u1", line{"A", 1, "10.00"})

	cases := map[string]apporder.CreateOrderInput{
		"missing user":     {ShippingAddress: shipping(), PaymentMethod: payment.MethodPix},
		"missing address":  {UserID: "u1", PaymentMethod: payment.MethodPix},
		"partial address":  {UserID: "u1", ShippingAddress: address.Address{Street: "x"}, PaymentMethod: payment.MethodPix},
		"unknown method":   {UserID: "u1", ShippingAddress: shipping(), PaymentMethod: "cash"},
		"no method at all": {UserID: "u1", ShippingAddress: shipping()},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.create.Execute(context.Background(), in)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 1, f.cart(t, "u1").TotalItems())
}

func TestCreateOrderInsertFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)
	f.seedCart(t, "u1", line{"A", 2, "10.00"})

	boom := errors.New("disk full")
	uc := apporder.NewCreateOrderUseCase(faultyTx{inner: f.store, insertErr: boom}, &seqIDs{}, f.pub, observability.Nop())

	_, err := uc.Execute(context.Background(), checkoutInput("u1"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 2, f.cart(t, "u1").TotalItems())
}

func TestCreateOrderCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)
	f.seedCart(t, "u1", line{"A", 2, "10.00"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.create.Execute(ctx, checkoutInput("u1"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, f.stock(t, "A"))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	const stock, buyers = 10, 30
	f.seedProduct(t, "A", "1.00", stock)
	for i := 0; i < buyers; i++ {
		f.seedCart(t, fmt.Sprintf("u%02d", i), line{"A", 1, "1.00"})
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		soldOut int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(), checkoutInput(user))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, errs.ErrInsufficientStock):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("u%02d", i))
	}
	wg.Wait()

	assert.Equal(t, stock, ok)
	assert.Equal(t, buyers-stock, soldOut)
	assert.Equal(t, 0, f.stock(t, "A"))
}

func TestConcurrentCheckoutOfSameCartYieldsOneOrder(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 10)
	f.seedCart(t, "u1", line{"A", 2, "10.00"})

	const attempts = 5
	errsCh := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(), checkoutInput("u1"))
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	var ok int
	for err := range errsCh {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrEmptyCart)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.orderCount(t, "u1"))
	assert.Equal(t, 8, f.stock(t, "A"))
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "A", "10.00", 5)
	f.seedCart(t, "u1", line{"A", 2, "10.00"})

	in := checkoutInput("u1")
	in.IdempotencyKey = "key-1"
	first, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)

	second, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Len(t, f.pub.named(order.OrderCreatedEvent{}.EventName()), 1)

	// The same key from another user is a different checkout.
	f.seedCart(t, "u2", line{"A", 1, "10.00"})
	in.UserID = "u2"
	other, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, other.Replayed)
	assert.NotEqual(t, first.Order.ID, other.Order.ID)
}
