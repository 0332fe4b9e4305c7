package catalog

import (
	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

var (
	errMissingID  = errs.Validation("product id is required")
	errPriceRange = errs.Validation("minPrice must not exceed maxPrice")
)

func errUnknownCategory(c domain.Category) error {
	return errs.Validationf("category %q is not recognised", string(c))
}
