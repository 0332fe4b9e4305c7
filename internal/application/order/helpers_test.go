package order_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("ord-%03d", s.n.Add(1)) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) named(name string) []domoutbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domoutbox.Event
	for _, e := range p.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// failingOrders fails every insert, to exercise rollback of earlier writes.
type failingOrders struct {
	order.Repository
	err error
}

func (f failingOrders) Insert(context.Context, *order.Order) error { return f.err }

type faultyTx struct {
	inner     application.Transactor
	insertErr error
}

func (f faultyTx) WithinTx(ctx context.Context, fn func(context.Context, application.Repositories) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		repos.Orders = failingOrders{Repository: repos.Orders, err: f.insertErr}
		return fn(ctx, repos)
	})
}

type fixture struct {
	store  *memory.Store
	repos  application.Repositories
	pub    *recordingPublisher
	create *apporder.CreateOrderUseCase
	cancel *apporder.CancelOrderUseCase
	query  *apporder.QueryUseCase
	status *apporder.UpdateStatusUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	pub := &recordingPublisher{}
	tel := observability.Nop()
	return &fixture{
		store:  st,
		repos:  st.Repositories(),
		pub:    pub,
		create: apporder.NewCreateOrderUseCase(st, &seqIDs{}, pub, tel),
		cancel: apporder.NewCancelOrderUseCase(st, pub, tel),
		query:  apporder.NewQueryUseCase(st.Repositories().Orders, tel),
		status: apporder.NewUpdateStatusUseCase(st, pub, tel),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func shipping() address.Address {
	return address.Address{Street: "Rua Augusta 1", City: "Lisboa", ZipCode: "1100-048", Country: "PT"}
}

func checkoutInput(userID string) apporder.CreateOrderInput {
	return apporder.CreateOrderInput{
		UserID:          userID,
		ShippingAddress: shipping(),
		PaymentMethod:   payment.MethodCreditCard,
	}
}

func (f *fixture) seedProduct(t *testing.T, id, price string, stock int) {
	t.Helper()
	p, err := catalog.New(id, "admin", catalog.Draft{
		Name:        "Product " + id,
		Description: "test product",
		Price:       dec(price),
		Category:    catalog.CategoryOther,
		Stock:       stock,
	})
	require.NoError(t, err)
	require.NoError(t, f.repos.Products.Insert(context.Background(), p))
}

type line struct {
	product string
	qty     int
	price   string
}

func (f *fixture) seedCart(t *testing.T, userID string, lines ...line) {
	t.Helper()
	c := cart.New(userID)
	for _, l := range lines {
		require.NoError(t, c.Add(l.product, l.qty, dec(l.price)))
	}
	require.NoError(t, f.repos.Carts.Save(context.Background(), c))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.repos.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) cart(t *testing.T, userID string) *cart.Cart {
	t.Helper()
	c, err := f.repos.Carts.Get(context.Background(), userID)
	require.NoError(t, err)
	return c
}

func (f *fixture) orderCount(t *testing.T, userID string) int {
	t.Helper()
	orders, err := f.repos.Orders.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return len(orders)
}
