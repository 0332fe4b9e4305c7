package catalog

import (
	"fmt"
	"math"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

// InsufficientStockError names the product whose stock could not cover a request.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	label := e.Name
	if label == "" {
		label = e.ProductID
	}
	return fmt.Sprintf("catalog: insufficient stock for %s (available %d, requested %d)", label, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == errs.ErrInsufficientStock
}

// CheckAvailable reports whether quantity units can be taken from p.
func (p *Product) CheckAvailable(quantity int) error {
	if quantity > p.Stock {
		return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: quantity}
	}
	return nil
}

// CheckAvailableOnTop reports whether extra more units can be taken from p
// when held are already spoken for. The comparison cannot overflow.
func (p *Product) CheckAvailableOnTop(held, extra int) error {
	if extra <= p.Stock && held <= p.Stock-extra {
		return nil
	}
	requested := math.MaxInt
	if held <= math.MaxInt-extra {
		requested = held + extra
	}
	return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: requested}
}
