package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderCancel = "order.cancel"

// CancelOrderUseCase cancels a pending order and puts its quantities back in stock.
type CancelOrderUseCase struct {
	tx        application.Transactor
	publisher domoutbox.Publisher
	inst      *application.Instrument
}

func NewCancelOrderUseCase(tx application.Transactor, publisher domoutbox.Publisher, tel observability.Observability) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		tx:        tx,
		publisher: publisher,
		inst:      application.NewInstrument(tel, orderService),
	}
}

type CancelOrderInput struct {
	UserID  string
	OrderID string
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderInput) (_ *domain.Order, err error) {
	run := uc.inst.Begin(ctx, useCaseOrderCancel, "CancelOrder",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.user_id", cmd.UserID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if cmd.UserID == "" {
		return nil, run.Fail("USER_ID_REQUIRED", errMissingUser)
	}
	if cmd.OrderID == "" {
		return nil, run.Fail("ORDER_ID_REQUIRED", errMissingID)
	}

	var (
		cancelled *domain.Order
		skipped   []string
	)
	txErr := uc.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		o, getErr := repos.Orders.Get(ctx, cmd.OrderID)
		if getErr != nil {
			return getErr
		}
		if !o.OwnedBy(cmd.UserID) {
			return domain.ErrForbidden
		}
		if cerr := o.Cancel(); cerr != nil {
			return cerr
		}
		var rerr error
		if skipped, rerr = restock(ctx, repos.Products, o); rerr != nil {
			return rerr
		}
		if uerr := repos.Orders.Update(ctx, o); uerr != nil {
			return fmt.Errorf("order: update: %w", uerr)
		}
		cancelled = o
		return nil
	})
	if txErr != nil {
		return nil, run.Fail(failureStatus(txErr), txErr)
	}

	if len(skipped) > 0 {
		run.Field("restock_skipped", skipped)
	}
	run.Publish(uc.publisher, domain.NewOrderCancelledEvent(cancelled, skipped))
	return cancelled, nil
}

// restock returns each line's quantity to stock. Lines whose product no
// longer exists are skipped and reported.
func restock(ctx context.Context, products catalog.Repository, o *domain.Order) ([]string, error) {
	var skipped []string
	for _, it := range o.Items {
		_, err := products.AdjustStock(ctx, it.ProductID, it.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrNotFound):
			skipped = append(skipped, it.ProductID)
		default:
			return nil, fmt.Errorf("order: restock %s: %w", it.ProductID, err)
		}
	}
	return skipped, nil
}
