package address

import (
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

// Address is a postal address used for user profiles and order shipping.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// ValidateShipping checks the fields needed to deliver a parcel. State is optional.
func (a Address) ValidateShipping() error {
	var missing []string
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.ZipCode) == "" {
		missing = append(missing, "zipCode")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return errs.Validationf("shipping address is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Merge overlays the non-empty fields of patch onto a.
func (a Address) Merge(patch Address) Address {
	if patch.Street != "" {
		a.Street = patch.Street
	}
	if patch.City != "" {
		a.City = patch.City
	}
	if patch.State != "" {
		a.State = patch.State
	}
	if patch.ZipCode != "" {
		a.ZipCode = patch.ZipCode
	}
	if patch.Country != "" {
		a.Country = patch.Country
	}
	return a
}
