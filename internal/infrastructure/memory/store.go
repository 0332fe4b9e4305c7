// Package memory is an in-process store. Values are cloned on the way in and
// out, so a stored pointer is never mutated after it is written.
package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	products    map[string]*catalog.Product
	carts       map[string]*cart.Cart
	orders      map[string]orderRecord
	idempotency map[string]string
	users       map[string]*user.User
	emails      map[string]string

	seq uint64
}

func NewStore() *Store {
	return &Store{
		products:    make(map[string]*catalog.Product),
		carts:       make(map[string]*cart.Cart),
		orders:      make(map[string]orderRecord),
		idempotency: make(map[string]string),
		users:       make(map[string]*user.User),
		emails:      make(map[string]string),
	}
}

// Repositories returns repositories that lock per call.
func (s *Store) Repositories() application.Repositories {
	return s.repositories(nil)
}

// WithinTx holds the write lock for the whole of fn, so other callers see
// either none or all of its writes. Writes are undone if fn fails, panics,
// or ctx is done by the time fn returns.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{}
	defer func() {
		if r := recover(); r != nil {
			t.rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, s.repositories(t)); err != nil {
		t.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		t.rollback()
		return err
	}
	return nil
}

func (s *Store) repositories(t *tx) application.Repositories {
	v := view{s: s, tx: t}
	return application.Repositories{
		Products: &ProductRepository{view: v},
		Carts:    &CartRepository{view: v},
		Orders:   &OrderRepository{view: v},
		Users:    &UserRepository{view: v},
	}
}

// view is the lock discipline shared by the repositories. Inside a
// transaction the store lock is already held.
type view struct {
	s  *Store
	tx *tx
}

func (v view) read(fn func()) {
	if v.tx == nil {
		v.s.mu.RLock()
		defer v.s.mu.RUnlock()
	}
	fn()
}

func (v view) write(fn func(t *tx)) {
	if v.tx == nil {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	fn(v.tx)
}

type tx struct {
	undo []func()
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// put sets m[k] and, inside a transaction, records how to restore the old entry.
func put[K comparable, V any](t *tx, m map[K]V, k K, v V) {
	if t != nil {
		prev, existed := m[k]
		t.undo = append(t.undo, func() {
			if existed {
				m[k] = prev
			} else {
				delete(m, k)
			}
		})
	}
	m[k] = v
}

func del[K comparable, V any](t *tx, m map[K]V, k K) {
	prev, existed := m[k]
	if !existed {
		return
	}
	if t != nil {
		t.undo = append(t.undo, func() { m[k] = prev })
	}
	delete(m, k)
}
