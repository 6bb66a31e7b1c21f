package engine

import (
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type GateInput struct {
	Lines       []domain.CartLine
	Stock       StockVerdict
	Coupon      *domain.AppliedCoupon
	ShippingFee decimal.Decimal
	Delivery    domain.DeliveryConfig
	Currency    currency.Unit
}

// Subtotal sums unit price times quantity over lines without rounding.
func Subtotal(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Total())
	}
	return sum
}

// Evaluate aggregates the pipeline outputs into a summary. Amounts are
// rounded to the currency's minor unit here and nowhere earlier; the total
// is never negative.
func Evaluate(in GateInput) domain.CheckoutSummary {
	subtotal := Subtotal(in.Lines)
	discount := CouponDiscount(in.Coupon, in.Lines, subtotal)

	summary := domain.CheckoutSummary{
		Subtotal:        domain.NewMoney(subtotal, in.Currency).Round(),
		CouponDiscount:  domain.NewMoney(discount, in.Currency).Round(),
		ShippingFee:     domain.NewMoney(in.ShippingFee, in.Currency).Round(),
		OutOfStockLines: in.Stock.OutOfStock(in.Lines),
	}

	total := summary.Subtotal.Amount.
		Sub(summary.CouponDiscount.Amount).
		Add(summary.ShippingFee.Amount)
	summary.Total = domain.NewMoney(decimal.Max(total, decimal.Zero), in.Currency)

	summary.BlockReason = blockReason(in, summary.Total.Amount)
	summary.EligibleForCheckout = summary.BlockReason == domain.BlockReasonNone

	return summary
}

func blockReason(in GateInput, total decimal.Decimal) domain.BlockReason {
	switch {
	case len(in.Lines) == 0:
		return domain.BlockReasonEmptyCart
	case in.Stock.Blocking:
		return domain.BlockReasonOutOfStock
	case in.Stock.Unverified:
		return domain.BlockReasonStockUnverified
	case in.Delivery.MinimumOrderValue.IsPositive() && total.LessThan(in.Delivery.MinimumOrderValue):
		return domain.BlockReasonBelowMinimum
	default:
		return domain.BlockReasonNone
	}
}
