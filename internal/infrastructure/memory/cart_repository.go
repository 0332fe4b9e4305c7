package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/cart"
)

type CartRepository struct {
	view
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	_ = ctx
	var c *domain.Cart
	r.read(func() { c = r.s.carts[userID].Clone() })
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil || c.UserID == "" {
		return fmt.Errorf("cart repository: user id is required")
	}
	r.write(func(t *tx) { put(t, r.s.carts, c.UserID, c.Clone()) })
	return nil
}
