package order

import (
	"context"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet  = "order.get"
	useCaseOrderList = "order.list"
)

// QueryUseCase serves the read side of orders.
type QueryUseCase struct {
	repo domain.Repository
	inst *application.Instrument
}

func NewQueryUseCase(repo domain.Repository, tel observability.Observability) *QueryUseCase {
	return &QueryUseCase{
		repo: repo,
		inst: application.NewInstrument(tel, orderService),
	}
}

// Get returns the order if userID owns it. A foreign order yields
// domain.ErrForbidden, an unknown id domain.ErrNotFound.
func (uc *QueryUseCase) Get(ctx context.Context, userID, orderID string) (_ *domain.Order, err error) {
	run := uc.inst.Begin(ctx, useCaseOrderGet, "GetOrder",
		attribute.String("order.id", orderID),
		attribute.String("order.user_id", userID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, run.Fail("USER_ID_REQUIRED", errMissingUser)
	}
	if orderID == "" {
		return nil, run.Fail("ORDER_ID_REQUIRED", errMissingID)
	}
	o, err := uc.repo.Get(ctx, orderID)
	if err != nil {
		return nil, run.Fail(failureStatus(err), err)
	}
	if !o.OwnedBy(userID) {
		return nil, run.Fail("FORBIDDEN", domain.ErrForbidden)
	}
	return o, nil
}

// List returns the user's orders, newest first.
func (uc *QueryUseCase) List(ctx context.Context, userID string) (_ []*domain.Order, err error) {
	run := uc.inst.Begin(ctx, useCaseOrderList, "ListOrders",
		attribute.String("order.user_id", userID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, run.Fail("USER_ID_REQUIRED", errMissingUser)
	}
	orders, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, run.Fail("REPO_LIST_FAILED", err)
	}
	run.Field("count", len(orders))
	return orders, nil
}
