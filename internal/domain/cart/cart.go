package cart

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

var (
	ErrNotFound        = fmt.Errorf("cart: not found: %w", errs.ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("cart: item not found: %w", errs.ErrNotFound)
	ErrInvalidQuantity = errs.Validation("quantity must be at least 1")
)

type Item struct {
	ProductID string
	Quantity  int
	// Price is the unit price captured when the line was first added.
	Price decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart belongs to exactly one user. Totals are always computed from Items.
type Cart struct {
	UserID    string
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Add accumulates quantity on an existing line, keeping its captured price,
// or appends a new line at price.
func (c *Cart) Add(productID string, quantity int, price decimal.Decimal) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(productID); i >= 0 {
		if c.Items[i].Quantity > math.MaxInt-quantity {
			return errs.Validation("quantity is too large")
		}
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity, Price: price})
	}
	c.touch()
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return errs.Validation("quantity cannot be negative")
	}
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity == 0 {
		c.removeAt(i)
	} else {
		c.Items[i].Quantity = quantity
	}
	c.touch()
	return nil
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.removeAt(i)
		c.touch()
	}
}

func (c *Cart) Clear() {
	c.Items = nil
	c.touch()
}

func (c *Cart) Item(productID string) (Item, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	return &cp
}

func (c *Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
