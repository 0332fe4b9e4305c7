package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/user"
)

type UserRepository struct {
	view
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	_ = ctx
	if u == nil || u.ID == "" {
		return fmt.Errorf("user repository: id is required")
	}
	email := domain.NormalizeEmail(u.Email)

	var err error
	r.write(func(t *tx) {
		if _, exists := r.s.users[u.ID]; exists {
			err = fmt.Errorf("user repository: duplicate id %s", u.ID)
			return
		}
		if _, taken := r.s.emails[email]; taken {
			err = domain.ErrEmailTaken
			return
		}
		put(t, r.s.users, u.ID, u.Clone())
		put(t, r.s.emails, email, u.ID)
	})
	return err
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	_ = ctx
	var u *domain.User
	r.read(func() { u = r.s.users[id].Clone() })
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	_ = ctx
	var u *domain.User
	r.read(func() {
		if id, ok := r.s.emails[domain.NormalizeEmail(email)]; ok {
			u = r.s.users[id].Clone()
		}
	})
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	_ = ctx
	if u == nil || u.ID == "" {
		return fmt.Errorf("user repository: id is required")
	}
	email := domain.NormalizeEmail(u.Email)

	var err error
	r.write(func(t *tx) {
		prev, exists := r.s.users[u.ID]
		if !exists {
			err = domain.ErrNotFound
			return
		}
		if owner, taken := r.s.emails[email]; taken && owner != u.ID {
			err = domain.ErrEmailTaken
			return
		}
		if old := domain.NormalizeEmail(prev.Email); old != email {
			del(t, r.s.emails, old)
			put(t, r.s.emails, email, u.ID)
		}
		put(t, r.s.users, u.ID, u.Clone())
	})
	return err
}
