package catalog

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

var (
	ErrNotFound = fmt.Errorf("catalog: product not found: %w", errs.ErrNotFound)
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
	maxRating            = 5
)

// Category is one of the fixed storefront departments.
type Category string

const (
	CategoryElectronics Category = "Eletrônicos"
	CategoryClothing    Category = "Roupas"
	CategoryBooks       Category = "Livros"
	CategoryHome        Category = "Casa"
	CategorySports      Category = "Esportes"
	CategoryOther       Category = "Outros"
)

var categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHome,
	CategorySports,
	CategoryOther,
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      Category
	Image         string
	Images        []string
	Stock         int
	Rating        float64
	Reviews       int
	IsActive      bool
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft carries the admin-supplied fields of a product.
type Draft struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      Category
	Image         string
	Images        []string
	Stock         int
	Rating        float64
	Reviews       int
	IsActive      *bool
}

func New(id, createdBy string, d Draft) (*Product, error) {
	now := time.Now().UTC()
	p := &Product{
		ID:        id,
		CreatedBy: createdBy,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(d)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Patch carries optional changes; nil fields are left untouched.
type Patch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      *Category
	Image         *string
	Images        []string
	Stock         *int
	Rating        *float64
	Reviews       *int
	IsActive      *bool
}

// ApplyPatch applies patch only if the result is valid.
func (p *Product) ApplyPatch(patch Patch) error {
	next := p.Clone()
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Price != nil {
		next.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		v := *patch.OriginalPrice
		next.OriginalPrice = &v
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Image != nil {
		next.Image = *patch.Image
	}
	if patch.Images != nil {
		next.Images = append([]string(nil), patch.Images...)
	}
	if patch.Stock != nil {
		next.Stock = *patch.Stock
	}
	if patch.Rating != nil {
		next.Rating = *patch.Rating
	}
	if patch.Reviews != nil {
		next.Reviews = *patch.Reviews
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.touch()
	*p = *next
	return nil
}

func (p *Product) apply(d Draft) {
	p.Name = strings.TrimSpace(d.Name)
	p.Description = d.Description
	p.Price = d.Price
	if d.OriginalPrice != nil {
		v := *d.OriginalPrice
		p.OriginalPrice = &v
	}
	p.Category = d.Category
	p.Image = d.Image
	p.Images = append([]string(nil), d.Images...)
	p.Stock = d.Stock
	p.Rating = d.Rating
	p.Reviews = d.Reviews
	if d.IsActive != nil {
		p.IsActive = *d.IsActive
	}
}

func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return errs.Validation("product name is required")
	case utf8.RuneCountInString(p.Name) > maxNameLength:
		return errs.Validationf("product name must be at most %d characters", maxNameLength)
	case strings.TrimSpace(p.Description) == "":
		return errs.Validation("product description is required")
	case utf8.RuneCountInString(p.Description) > maxDescriptionLength:
		return errs.Validationf("product description must be at most %d characters", maxDescriptionLength)
	case p.Price.IsNegative():
		return errs.Validation("product price cannot be negative")
	case p.OriginalPrice != nil && p.OriginalPrice.IsNegative():
		return errs.Validation("product original price cannot be negative")
	case !p.Category.Valid():
		return errs.Validationf("product category %q is not recognised", string(p.Category))
	case p.Stock < 0:
		return errs.Validation("product stock cannot be negative")
	case p.Rating < 0 || p.Rating > maxRating:
		return errs.Validationf("product rating must be between 0 and %d", maxRating)
	case p.Reviews < 0:
		return errs.Validation("product reviews cannot be negative")
	}
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		cp.OriginalPrice = &v
	}
	cp.Images = append([]string(nil), p.Images...)
	return &cp
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
