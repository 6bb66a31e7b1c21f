package engine_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int {
	return &i
}

func randomProductID() uuid.UUID {
	return uuid.MustParse(gofakeit.UUID())
}

// shirt has one variant with sizes, one with its own stock and no sizes.
func shirt() domain.Product {
	return domain.Product{
		ID:           randomProductID(),
		Name:         "Linen shirt",
		Image:        "shirt.jpg",
		BasePrice:    dec("100"),
		HasDiscount:  true,
		DiscountRate: dec("0.2"),
		Category:     "tops",
		Variants: []domain.Variant{
			{
				ID:     "white",
				Color:  "white",
				Images: []string{"shirt-white.jpg"},
				Sizes: []domain.Size{
					{Label: "M", Stock: 4, Price: dec("80")},
					{Label: "L", Stock: 0},
				},
			},
			{
				ID:    "navy",
				Color: "navy",
				Stock: intPtr(7),
			},
		},
	}
}

func mug() domain.Product {
	return domain.Product{
		ID:           randomProductID(),
		Name:         "Mug",
		Image:        "mug.jpg",
		BasePrice:    dec("12.500"),
		Category:     "home",
		CountInStock: 9,
	}
}

func catalogOf(products ...domain.Product) map[uuid.UUID]domain.Product {
	catalog := make(map[uuid.UUID]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return catalog
}

func line(productID uuid.UUID, variantID, size string, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID: productID,
		VariantID: variantID,
		SizeLabel: size,
		Quantity:  qty,
	}
}

func pricedLine(category, unitPrice string, qty, stock int) domain.CartLine {
	return domain.CartLine{
		ProductID: randomProductID(),
		Quantity:  qty,
		UnitPrice: dec(unitPrice),
		Category:  category,
		Stock:     stock,
	}
}

var decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool {
	return x.Equal(y)
})

func assertLines(t *testing.T, expected, actual []domain.CartLine) {
	t.Helper()

	opts := cmp.Options{
		decimalComparer,
		cmpopts.EquateEmpty(),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}
