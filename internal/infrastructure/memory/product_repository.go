package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

type ProductRepository struct {
	view
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx
	var p *domain.Product
	r.read(func() { p = r.s.products[id].Clone() })
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// List returns matching products, newest first.
func (r *ProductRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	_ = ctx
	var out []*domain.Product
	r.read(func() {
		for _, p := range r.s.products {
			if f.Matches(p) {
				out = append(out, p.Clone())
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	var err error
	r.write(func(t *tx) {
		if _, exists := r.s.products[p.ID]; exists {
			err = fmt.Errorf("product repository: duplicate id %s", p.ID)
			return
		}
		put(t, r.s.products, p.ID, p.Clone())
	})
	return err
}

// Update patches the current copy under the store lock, so a concurrent
// AdjustStock is never overwritten.
func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Product, error) {
	_ = ctx
	var (
		out *domain.Product
		err error
	)
	r.write(func(t *tx) {
		cur, exists := r.s.products[id]
		if !exists {
			err = domain.ErrNotFound
			return
		}
		next := cur.Clone()
		if err = next.ApplyPatch(patch); err != nil {
			return
		}
		put(t, r.s.products, id, next)
		out = next.Clone()
	})
	return out, err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	var err error
	r.write(func(t *tx) {
		if _, exists := r.s.products[id]; !exists {
			err = domain.ErrNotFound
			return
		}
		del(t, r.s.products, id)
	})
	return err
}

// AdjustStock checks and applies delta under the store lock.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	_ = ctx
	var (
		stock int
		err   error
	)
	r.write(func(t *tx) {
		cur, ok := r.s.products[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		if cur.Stock+delta < 0 {
			err = &domain.InsufficientStockError{ProductID: id, Name: cur.Name, Available: cur.Stock, Requested: -delta}
			return
		}
		next := cur.Clone()
		next.Stock += delta
		put(t, r.s.products, id, next)
		stock = next.Stock
	})
	return stock, err
}
