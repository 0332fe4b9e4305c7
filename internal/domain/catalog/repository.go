package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Category Category
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	// IncludeInactive lists products hidden from the storefront as well.
	IncludeInactive bool
}

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, f Filter) ([]*Product, error)
	Insert(ctx context.Context, p *Product) error
	// Update applies patch to the stored product as one step and returns the
	// result. Stock is written only when patch.Stock is set.
	Update(ctx context.Context, id string, patch Patch) (*Product, error)
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta to the product's stock as one guarded step and
	// returns the new stock. A negative delta that would leave stock below zero
	// fails with *InsufficientStockError and changes nothing.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

// Cache holds display copies of products.
type Cache interface {
	Get(ctx context.Context, id string) (*Product, bool, error)
	Set(ctx context.Context, p *Product) error
	Invalidate(ctx context.Context, ids ...string) error
}
