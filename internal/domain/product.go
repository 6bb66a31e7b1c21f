package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uuid.UUID
	Name         string
	Image        string
	BasePrice    decimal.Decimal
	HasDiscount  bool
	DiscountRate decimal.Decimal
	Category     string
	Variants     []Variant
	// CountInStock applies only when the product has no variants.
	CountInStock int
}

func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

type Variant struct {
	ID    string
	Color string
	// Price overrides the product base price when positive.
	Price  decimal.Decimal
	Stock  *int
	Sizes  []Size
	Images []string
}

func (v Variant) HasSizes() bool {
	return len(v.Sizes) > 0
}

type Size struct {
	Label string
	Stock int
	// Price overrides the variant and product base price when positive.
	Price decimal.Decimal
}
