package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService = "cart-service"

	useCaseGet    = "cart.get"
	useCaseAdd    = "cart.add"
	useCaseUpdate = "cart.update"
	useCaseRemove = "cart.remove"
	useCaseClear  = "cart.clear"
)

var (
	errMissingUser    = errs.Validation("user id is required")
	errMissingProduct = errs.Validation("product id is required")
)

// Service manages the caller's cart. Mutations run in a transaction so a
// cart write never races a checkout of the same cart.
type Service struct {
	tx   application.Transactor
	inst *application.Instrument
}

func NewService(tx application.Transactor, tel observability.Observability) *Service {
	return &Service{
		tx:   tx,
		inst: application.NewInstrument(tel, cartService),
	}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (_ *domain.Cart, err error) {
	run := s.inst.Begin(ctx, useCaseGet, "GetCart", attribute.String("cart.user_id", userID))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, run.Fail("USER_ID_REQUIRED", errMissingUser)
	}
	var c *domain.Cart
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		found, gerr := repos.Carts.Get(ctx, userID)
		switch {
		case gerr == nil:
			c = found
			return nil
		case errors.Is(gerr, domain.ErrNotFound):
			c = domain.New(userID)
			return repos.Carts.Save(ctx, c)
		default:
			return gerr
		}
	})
	if err != nil {
		return nil, run.Fail("REPO_FAILED", fmt.Errorf("cart: get: %w", err))
	}
	return c, nil
}

// Add puts quantity units of productID in the cart. The resulting line
// quantity must be covered by current stock.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (_ *domain.Cart, err error) {
	run := s.inst.Begin(ctx, useCaseAdd, "AddToCart",
		attribute.String("cart.user_id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if err := validateLine(userID, productID); err != nil {
		return nil, run.Fail("VALIDATION_FAILED", err)
	}
	if quantity < 1 {
		return nil, run.Fail("VALIDATION_FAILED", domain.ErrInvalidQuantity)
	}

	var c *domain.Cart
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		p, perr := repos.Products.Get(ctx, productID)
		if perr != nil {
			return perr
		}
		cur, cerr := loadOrNew(ctx, repos.Carts, userID)
		if cerr != nil {
			return cerr
		}
		var held int
		if line, ok := cur.Item(productID); ok {
			held = line.Quantity
		}
		if aerr := p.CheckAvailableOnTop(held, quantity); aerr != nil {
			return aerr
		}
		if aerr := cur.Add(productID, quantity, p.Price); aerr != nil {
			return aerr
		}
		c = cur
		return repos.Carts.Save(ctx, cur)
	})
	if err != nil {
		return nil, run.Fail(failureStatus(err), err)
	}
	run.Field("total_items", c.TotalItems())
	return c, nil
}

// Update sets a line's quantity; zero removes it.
func (s *Service) Update(ctx context.Context, userID, productID string, quantity int) (_ *domain.Cart, err error) {
	run := s.inst.Begin(ctx, useCaseUpdate, "UpdateCartItem",
		attribute.String("cart.user_id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if err := validateLine(userID, productID); err != nil {
		return nil, run.Fail("VALIDATION_FAILED", err)
	}
	if quantity < 0 {
		return nil, run.Fail("VALIDATION_FAILED", errs.Validation("quantity cannot be negative"))
	}

	var c *domain.Cart
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		p, perr := repos.Products.Get(ctx, productID)
		if perr != nil {
			return perr
		}
		if quantity > 0 {
			if aerr := p.CheckAvailable(quantity); aerr != nil {
				return aerr
			}
		}
		cur, cerr := repos.Carts.Get(ctx, userID)
		if cerr != nil {
			return cerr
		}
		if serr := cur.SetQuantity(productID, quantity); serr != nil {
			return serr
		}
		c = cur
		return repos.Carts.Save(ctx, cur)
	})
	if err != nil {
		return nil, run.Fail(failureStatus(err), err)
	}
	return c, nil
}

// Remove drops a line. Removing a product that is not in the cart is not an error.
func (s *Service) Remove(ctx context.Context, userID, productID string) (_ *domain.Cart, err error) {
	run := s.inst.Begin(ctx, useCaseRemove, "RemoveFromCart",
		attribute.String("cart.user_id", userID),
		attribute.String("product.id", productID),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if err := validateLine(userID, productID); err != nil {
		return nil, run.Fail("VALIDATION_FAILED", err)
	}
	c, err := s.mutate(ctx, userID, func(c *domain.Cart) { c.Remove(productID) })
	if err != nil {
		return nil, run.Fail(failureStatus(err), err)
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID string) (_ *domain.Cart, err error) {
	run := s.inst.Begin(ctx, useCaseClear, "ClearCart", attribute.String("cart.user_id", userID))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if userID == "" {
		return nil, run.Fail("USER_ID_REQUIRED", errMissingUser)
	}
	c, err := s.mutate(ctx, userID, func(c *domain.Cart) { c.Clear() })
	if err != nil {
		return nil, run.Fail(failureStatus(err), err)
	}
	return c, nil
}

// mutate applies fn to an existing cart and saves it.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*domain.Cart)) (*domain.Cart, error) {
	var c *domain.Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		cur, err := repos.Carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		fn(cur)
		c = cur
		return repos.Carts.Save(ctx, cur)
	})
	return c, err
}

func loadOrNew(ctx context.Context, carts domain.Repository, userID string) (*domain.Cart, error) {
	c, err := carts.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.New(userID), nil
	}
	return c, err
}

func validateLine(userID, productID string) error {
	if userID == "" {
		return errMissingUser
	}
	if productID == "" {
		return errMissingProduct
	}
	return nil
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, catalog.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, domain.ErrItemNotFound):
		return "ITEM_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		return "CART_NOT_FOUND"
	case errors.Is(err, errs.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	default:
		return "REPO_FAILED"
	}
}
