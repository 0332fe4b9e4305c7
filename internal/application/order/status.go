package order

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderStatus = "order.update_status"

// UpdateStatusUseCase is the back-office path that moves an order along its
// lifecycle. Callers must already be authorised as admins.
type UpdateStatusUseCase struct {
	tx        application.Transactor
	publisher domoutbox.Publisher
	inst      *application.Instrument
}

func NewUpdateStatusUseCase(tx application.Transactor, publisher domoutbox.Publisher, tel observability.Observability) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		tx:        tx,
		publisher: publisher,
		inst:      application.NewInstrument(tel, orderService),
	}
}

// UpdateStatusInput leaves a field unchanged when it is nil. Setting a status
// equal to the current one is a no-op.
type UpdateStatusInput struct {
	OrderID        string
	Status         *domain.Status
	PaymentStatus  *payment.Status
	TrackingNumber *string
	Notes          *string
}

func (uc *UpdateStatusUseCase) Execute(ctx context.Context, cmd UpdateStatusInput) (_ *domain.Order, err error) {
	run := uc.inst.Begin(ctx, useCaseOrderStatus, "UpdateOrderStatus",
		attribute.String("order.id", cmd.OrderID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		return nil, run.Fail("ORDER_ID_REQUIRED", errMissingID)
	}

	var (
		updated *domain.Order
		from    domain.Status
		changed bool
		skipped []string
	)
	txErr := uc.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		changed, skipped = false, nil
		o, getErr := repos.Orders.Get(ctx, cmd.OrderID)
		if getErr != nil {
			return getErr
		}
		from = o.Status
		paymentFrom := o.PaymentStatus

		if cmd.Status != nil && *cmd.Status != o.Status {
			if *cmd.Status == domain.StatusCancelled {
				if cerr := o.Cancel(); cerr != nil {
					return cerr
				}
				var rerr error
				if skipped, rerr = restock(ctx, repos.Products, o); rerr != nil {
					return rerr
				}
			} else if aerr := o.Advance(*cmd.Status); aerr != nil {
				return aerr
			}
		}
		if cmd.PaymentStatus != nil && *cmd.PaymentStatus != o.PaymentStatus {
			if perr := o.SetPaymentStatus(*cmd.PaymentStatus); perr != nil {
				return perr
			}
		}
		if cmd.TrackingNumber != nil {
			o.SetTracking(*cmd.TrackingNumber)
		}
		if cmd.Notes != nil {
			o.SetNotes(*cmd.Notes)
		}
		if uerr := repos.Orders.Update(ctx, o); uerr != nil {
			return fmt.Errorf("order: update: %w", uerr)
		}
		changed = o.Status != from || o.PaymentStatus != paymentFrom
		updated = o
		return nil
	})
	if txErr != nil {
		return nil, run.Fail(failureStatus(txErr), txErr)
	}

	run.Field("from", string(from))
	run.Field("to", string(updated.Status))
	if !changed {
		return updated, nil
	}
	if updated.Status == domain.StatusCancelled && from != domain.StatusCancelled {
		run.Publish(uc.publisher, domain.NewOrderCancelledEvent(updated, skipped))
	}
	run.Publish(uc.publisher, domain.NewOrderStatusChangedEvent(updated, from))
	return updated, nil
}
