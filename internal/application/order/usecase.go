package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
)

// CreateOrderUseCase turns the caller's cart into an order while taking the
// ordered quantities out of stock.
type CreateOrderUseCase struct {
	tx          application.Transactor
	idGenerator application.IDGenerator
	publisher   domoutbox.Publisher
	inst        *application.Instrument
}

func NewCreateOrderUseCase(
	tx application.Transactor,
	idGen application.IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		tx:          tx,
		idGenerator: idGen,
		publisher:   publisher,
		inst:        application.NewInstrument(tel, orderService),
	}
}

type CreateOrderInput struct {
	UserID          string
	ShippingAddress address.Address
	PaymentMethod   payment.Method
	IdempotencyKey  string
}

type CreateOrderResult struct {
	Order *domain.Order
	// Replayed is set when IdempotencyKey matched an earlier order.
	Replayed bool
}

// Execute performs the checkout. Either every stock decrement, the order
// insert and the cart reset commit together, or none of them do.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *CreateOrderResult, err error) {
	run := uc.inst.Begin(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.user_id", cmd.UserID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if cmd.UserID == "" {
		return nil, run.Fail("USER_ID_REQUIRED", errMissingUser)
	}
	checkout := domain.Checkout{
		ShippingAddress: cmd.ShippingAddress,
		PaymentMethod:   cmd.PaymentMethod,
		IdempotencyKey:  cmd.IdempotencyKey,
	}
	if verr := checkout.Validate(); verr != nil {
		return nil, run.Fail("VALIDATION_FAILED", verr)
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, run.Fail("CONTEXT_CANCELED", cerr)
	}

	var res *CreateOrderResult
	txErr := uc.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		res = nil
		if cmd.IdempotencyKey != "" {
			existing, lookupErr := repos.Orders.FindByIdempotency(ctx, cmd.UserID, cmd.IdempotencyKey)
			switch {
			case lookupErr == nil:
				res = &CreateOrderResult{Order: existing, Replayed: true}
				return nil
			case !errors.Is(lookupErr, domain.ErrNotFound):
				return fmt.Errorf("order: idempotency lookup: %w", lookupErr)
			}
		}

		c, cartErr := repos.Carts.Get(ctx, cmd.UserID)
		if errors.Is(cartErr, cart.ErrNotFound) {
			return domain.ErrEmptyCart
		}
		if cartErr != nil {
			return fmt.Errorf("order: load cart: %w", cartErr)
		}
		if c.IsEmpty() {
			return domain.ErrEmptyCart
		}

		items := make([]domain.Item, 0, len(c.Items))
		for _, line := range c.Items {
			if _, adjErr := repos.Products.AdjustStock(ctx, line.ProductID, -line.Quantity); adjErr != nil {
				if errors.Is(adjErr, catalog.ErrNotFound) {
					return &catalog.InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity}
				}
				return adjErr
			}
			items = append(items, domain.Item{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}

		entity, derr := domain.New(uc.idGenerator.NewID(), cmd.UserID, items, checkout)
		if derr != nil {
			return derr
		}
		if insErr := repos.Orders.Insert(ctx, entity); insErr != nil {
			return fmt.Errorf("order: insert: %w", insErr)
		}

		c.Clear()
		if saveErr := repos.Carts.Save(ctx, c); saveErr != nil {
			return fmt.Errorf("order: reset cart: %w", saveErr)
		}
		res = &CreateOrderResult{Order: entity}
		return nil
	})

	if txErr != nil && cmd.IdempotencyKey != "" && errors.Is(txErr, domain.ErrDuplicateKey) {
		// A concurrent request with the same key committed first.
		if existing, lookupErr := uc.lookupKey(ctx, cmd.UserID, cmd.IdempotencyKey); lookupErr == nil {
			res, txErr = &CreateOrderResult{Order: existing, Replayed: true}, nil
		}
	}
	if txErr != nil {
		return nil, run.Fail(failureStatus(txErr), txErr)
	}

	run.Span().SetAttributes(
		attribute.String("order.id", res.Order.ID),
		attribute.String("order.status", string(res.Order.Status)),
	)
	run.Field("order_id", res.Order.ID)
	if res.Replayed {
		run.SetStatus("IDEMPOTENT_REPLAY")
		run.Span().AddEvent("order.idempotent_replay",
			trace.WithAttributes(attribute.String("order.id", res.Order.ID)),
		)
		return res, nil
	}

	run.Field("total_amount", res.Order.TotalAmount.StringFixed(2))
	run.Publish(uc.publisher, domain.NewOrderCreatedEvent(res.Order))
	return res, nil
}

func (uc *CreateOrderUseCase) lookupKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	var found *domain.Order
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		o, err := repos.Orders.FindByIdempotency(ctx, userID, key)
		found = o
		return err
	})
	return found, err
}
