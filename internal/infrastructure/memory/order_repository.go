package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
)

type orderRecord struct {
	order *domain.Order
	seq   uint64
}

type OrderRepository struct {
	view
}

func idempotencyKey(userID, key string) string {
	return userID + "\x00" + key
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	var err error
	r.write(func(t *tx) {
		if _, exists := r.s.orders[order.ID]; exists {
			err = fmt.Errorf("order repository: duplicate id %s", order.ID)
			return
		}
		if key := order.IdempotencyKey; key != "" {
			if _, exists := r.s.idempotency[idempotencyKey(order.UserID, key)]; exists {
				err = domain.ErrDuplicateKey
				return
			}
		}

		r.s.seq++
		put(t, r.s.orders, order.ID, orderRecord{order: order.Clone(), seq: r.s.seq})
		if key := order.IdempotencyKey; key != "" {
			put(t, r.s.idempotency, idempotencyKey(order.UserID, key), order.ID)
		}
	})
	return err
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx
	var o *domain.Order
	r.read(func() {
		if rec, ok := r.s.orders[id]; ok {
			o = rec.order.Clone()
		}
	})
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	_ = ctx
	var recs []orderRecord
	r.read(func() {
		for _, rec := range r.s.orders {
			if rec.order.UserID == userID {
				recs = append(recs, orderRecord{order: rec.order.Clone(), seq: rec.seq})
			}
		}
	})
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*domain.Order, len(recs))
	for i, rec := range recs {
		out[i] = rec.order
	}
	return out, nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	var err error
	r.write(func(t *tx) {
		rec, exists := r.s.orders[order.ID]
		if !exists {
			err = domain.ErrNotFound
			return
		}
		put(t, r.s.orders, order.ID, orderRecord{order: order.Clone(), seq: rec.seq})
	})
	return err
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, userID, key string) (*domain.Order, error) {
	_ = ctx
	if key == "" {
		return nil, domain.ErrNotFound
	}

	var o *domain.Order
	r.read(func() {
		orderID, ok := r.s.idempotency[idempotencyKey(userID, key)]
		if !ok {
			return
		}
		if rec, found := r.s.orders[orderID]; found {
			o = rec.order.Clone()
		}
	})
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}
