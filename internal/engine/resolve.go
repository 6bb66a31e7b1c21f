// Package engine reconciles a persisted cart against catalog data and
// decides whether checkout may proceed.
package engine

import (
	"errors"

	"github.com/nikolayk812/cart-checkout/internal/domain"
)

var (
	ErrVariantNotFound = errors.New("variant not found")
	ErrSizeNotFound    = errors.New("size not found")
)

// Selection is the variant and size a cart line points at. Both are nil on
// the product-level path.
type Selection struct {
	Variant *domain.Variant
	Size    *domain.Size
}

// ResolveSelection finds the variant and size sub-records of a product by
// exact identifier match. An empty variantID selects nothing; an empty
// sizeLabel selects no size.
func ResolveSelection(product domain.Product, variantID, sizeLabel string) (Selection, error) {
	if variantID == "" {
		return Selection{}, nil
	}

	variant := findVariant(product, variantID)
	if variant == nil {
		return Selection{}, ErrVariantNotFound
	}

	if sizeLabel == "" {
		return Selection{Variant: variant}, nil
	}

	size := findSize(*variant, sizeLabel)
	if size == nil {
		return Selection{Variant: variant}, ErrSizeNotFound
	}

	return Selection{Variant: variant, Size: size}, nil
}

func findVariant(product domain.Product, variantID string) *domain.Variant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

func findSize(variant domain.Variant, label string) *domain.Size {
	for i := range variant.Sizes {
		if variant.Sizes[i].Label == label {
			return &variant.Sizes[i]
		}
	}
	return nil
}
