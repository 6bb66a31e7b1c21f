package engine

import (
	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
)

type RemovalReason string

const (
	RemovalProductMissing  RemovalReason = "product_missing"
	RemovalVariantMissing  RemovalReason = "variant_missing"
	RemovalSizeMissing     RemovalReason = "size_missing"
	RemovalInvalidQuantity RemovalReason = "invalid_quantity"
)

type RemovedLine struct {
	Line   domain.CartLine
	Reason RemovalReason
}

type Reconciliation struct {
	Lines   []domain.CartLine
	Removed []RemovedLine
}

// Changed reports whether the reconciled lines differ from the input lines,
// either by removal or by a refreshed snapshot.
func (r Reconciliation) Changed(before []domain.CartLine) bool {
	if len(r.Removed) > 0 || len(r.Lines) != len(before) {
		return true
	}
	for i := range before {
		if !sameSnapshot(before[i], r.Lines[i]) {
			return true
		}
	}
	return false
}

// Reconcile refreshes cached line data from the catalog snapshot and moves
// lines whose product, variant or size no longer exists to Removed. The input
// slice is not modified.
func Reconcile(lines []domain.CartLine, catalog map[uuid.UUID]domain.Product) Reconciliation {
	var result Reconciliation

	for _, line := range lines {
		if line.Quantity < 1 {
			result.Removed = append(result.Removed, RemovedLine{Line: line, Reason: RemovalInvalidQuantity})
			continue
		}

		product, ok := catalog[line.ProductID]
		if !ok {
			result.Removed = append(result.Removed, RemovedLine{Line: line, Reason: RemovalProductMissing})
			continue
		}

		sel, reason := selectionForLine(product, line)
		if reason != "" {
			result.Removed = append(result.Removed, RemovedLine{Line: line, Reason: reason})
			continue
		}

		result.Lines = append(result.Lines, refreshLine(line, product, sel))
	}

	return result
}

// selectionForLine resolves the line's variant only when the product has
// variants and its size only when the variant has sizes.
func selectionForLine(product domain.Product, line domain.CartLine) (Selection, RemovalReason) {
	if line.VariantID == "" || !product.HasVariants() {
		return Selection{}, ""
	}

	sel, err := ResolveSelection(product, line.VariantID, "")
	if err != nil {
		return Selection{}, RemovalVariantMissing
	}

	if line.SizeLabel == "" || !sel.Variant.HasSizes() {
		return sel, ""
	}

	sel, err = ResolveSelection(product, line.VariantID, line.SizeLabel)
	if err != nil {
		return Selection{}, RemovalSizeMissing
	}

	return sel, ""
}

func refreshLine(line domain.CartLine, product domain.Product, sel Selection) domain.CartLine {
	line.Name = product.Name
	line.Category = product.Category
	line.Image = product.Image
	if sel.Variant != nil && len(sel.Variant.Images) > 0 {
		line.Image = sel.Variant.Images[0]
	}
	line.UnitPrice = DerivePrice(product, sel.Variant, sel.Size)
	line.Stock = DeriveStock(product, sel.Variant, sel.Size)

	return line
}

func sameSnapshot(a, b domain.CartLine) bool {
	return a.Key() == b.Key() &&
		a.Quantity == b.Quantity &&
		a.Name == b.Name &&
		a.UnitPrice.Equal(b.UnitPrice) &&
		a.Image == b.Image &&
		a.Category == b.Category &&
		a.Stock == b.Stock
}
