package engine

import (
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

// DerivePrice returns the effective unit price of a selection. The discount
// rate always comes from the product and is applied once to the selected base.
// No rounding happens here.
func DerivePrice(product domain.Product, variant *domain.Variant, size *domain.Size) decimal.Decimal {
	base := basePrice(product, variant, size)

	if !product.HasDiscount {
		return base
	}

	return base.Sub(base.Mul(product.DiscountRate))
}

func basePrice(product domain.Product, variant *domain.Variant, size *domain.Size) decimal.Decimal {
	if size != nil && size.Price.IsPositive() {
		return size.Price
	}

	if variant != nil && variant.Price.IsPositive() {
		return variant.Price
	}

	return product.BasePrice
}

// DeriveStock returns the stock figure of a selection: the size stock, else
// the variant stock when the variant carries one, else the product stock.
func DeriveStock(product domain.Product, variant *domain.Variant, size *domain.Size) int {
	if size != nil {
		return size.Stock
	}

	if variant != nil && variant.Stock != nil {
		return *variant.Stock
	}

	return product.CountInStock
}
