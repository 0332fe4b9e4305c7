package user

import "context"

type Repository interface {
	// Insert fails with ErrEmailTaken if the email is already registered.
	Insert(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Update fails with ErrEmailTaken if the new email belongs to another user.
	Update(ctx context.Context, u *User) error
}
