// Package models provides the data structures used throughout the application.
package models

import (
	"fmt"
	"strings"
)

// Category is one of the fixed expense/income classifications. Values outside
// the enumeration can only be produced by ParseCategory, which rejects them.
type Category string

// Categories
const (
	CategoryUncategorized        Category = "Uncategorized"
	CategoryProcessing           Category = "Processing"
	CategoryBankFees             Category = "Bank Fees"
	CategoryAdvertisement        Category = "Advertisement"
	CategoryMarketing            Category = "Marketing"
	CategoryRepairsMaintenance   Category = "Repairs and Maintenance"
	CategoryEVGas                Category = "EV/Gas"
	CategorySupplies             Category = "Supplies"
	CategorySoftware             Category = "Software"
	CategoryMeals                Category = "Meals"
	CategoryShipping             Category = "Shipping"
	CategoryTravel               Category = "Travel"
	CategoryUtilities            Category = "Utilities"
	CategoryOfficeRent           Category = "Office Rent"
	CategoryProfessionalServices Category = "Professional Services"
	CategoryEquipment            Category = "Equipment"
	CategorySales                Category = "Sales"
	CategoryInsurance            Category = "Insurance"
	CategoryOther                Category = "Other"
)

var allCategories = []Category{
	CategoryUncategorized,
	CategoryProcessing,
	CategoryBankFees,
	CategoryAdvertisement,
	CategoryMarketing,
	CategoryRepairsMaintenance,
	CategoryEVGas,
	CategorySupplies,
	CategorySoftware,
	CategoryMeals,
	CategoryShipping,
	CategoryTravel,
	CategoryUtilities,
	CategoryOfficeRent,
	CategoryProfessionalServices,
	CategoryEquipment,
	CategorySales,
	CategoryInsurance,
	CategoryOther,
}

// AllCategories returns the category enumeration in display order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for _, c := range allCategories {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// Valid reports whether c belongs to the enumeration.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// UnmarshalText rejects names outside the enumeration, so YAML and JSON
// decoding cannot smuggle in ad hoc categories.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c), nil
}
