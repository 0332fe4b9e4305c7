// Package outbox holds the ports order use cases publish through. Events
// describe something that already committed; a failed publish never undoes it.
package outbox

import "context"

// Event is an order lifecycle fact, e.g. "order.created".
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
