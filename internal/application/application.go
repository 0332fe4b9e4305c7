package application

import (
	"context"

	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Repositories is the set of stores a unit of work can touch.
type Repositories struct {
	Products catalog.Repository
	Carts    cart.Repository
	Orders   order.Repository
	Users    user.Repository
}

// Transactor runs fn as one all-or-nothing unit. If fn returns an error, or
// ctx ends before commit, none of the writes made through repos take effect.
// fn may be invoked more than once when the store retries a conflicting commit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type IDGenerator interface {
	NewID() string
}
