package catalog

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const workerService = "catalog-worker"

// Worker drops cached products whose stock an order event changed.
type Worker struct {
	catalog *Service
	inst    *application.Instrument
}

func NewWorker(catalog *Service, tel observability.Observability) *Worker {
	return &Worker{
		catalog: catalog,
		inst:    application.NewInstrument(tel, workerService),
	}
}

func (w *Worker) Start(subscriber domoutbox.Subscriber) {
	if subscriber == nil || w.catalog == nil {
		return
	}
	subscriber.Subscribe(domorder.OrderCreatedEvent{}.EventName(), w.handle)
	subscriber.Subscribe(domorder.OrderCancelledEvent{}.EventName(), w.handle)
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "catalog.worker.invalidate"

	var (
		orderID string
		items   []domorder.LineItem
	)
	switch evt := e.(type) {
	case domorder.OrderCreatedEvent:
		orderID, items = evt.OrderID, evt.Items
	case domorder.OrderCancelledEvent:
		orderID, items = evt.OrderID, evt.Items
	default:
		return nil
	}

	run := w.inst.Begin(ctx, useCase, "InvalidateProducts",
		attribute.String("event", e.EventName()),
		attribute.String("order.id", orderID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	ids := domorder.ProductIDs(items)
	run.Field("order_id", orderID)
	run.Field("products", len(ids))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	w.catalog.Invalidate(ctx, ids...)
	return nil
}
