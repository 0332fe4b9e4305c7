package order

import "context"

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	Update(ctx context.Context, o *Order) error
	// FindByIdempotency returns ErrNotFound when no order carries key for userID.
	FindByIdempotency(ctx context.Context, userID, key string) (*Order, error)
}
