// Package workerpresentation scopes background event handlers the way the
// HTTP layer scopes requests.
package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

// WithEventContext injects an event-scoped logger for a background execution.
// Dynamic fields only: event_id (generated if empty), trace_id/span_id when
// valid, plus low-cardinality attrs such as the event name or handler.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	sc trace.SpanContext,
	attrs map[string]string,
) context.Context {
	base = logctx.FromOr(ctx, base)

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := make([]observability.Field, 0, len(attrs)+3)
	fields = append(fields, observability.F("event_id", evtID))
	if sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}
	return logctx.With(ctx, base.With(fields...))
}

// Subscriber wraps every registered handler with WithEventContext.
type Subscriber struct {
	next    domoutbox.Subscriber
	log     observability.Logger
	handler string
}

// NewSubscriber tags handlers registered through it with the given handler name.
func NewSubscriber(next domoutbox.Subscriber, handler string, tel observability.Observability) *Subscriber {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Subscriber{
		next:    next,
		log:     tel.Logger().With(observability.F("component", "worker")),
		handler: handler,
	}
}

func (s *Subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.next.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		ctx = WithEventContext(ctx, s.log, trace.SpanContextFromContext(ctx), map[string]string{
			"event":   e.EventName(),
			"handler": s.handler,
		})
		return h(ctx, e)
	})
}
