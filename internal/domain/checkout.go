package domain

type BlockReason string

const (
	BlockReasonNone            BlockReason = ""
	BlockReasonEmptyCart       BlockReason = "empty_cart"
	BlockReasonOutOfStock      BlockReason = "out_of_stock"
	BlockReasonStockUnverified BlockReason = "stock_unverified"
	BlockReasonBelowMinimum    BlockReason = "below_minimum"
)

func (r BlockReason) String() string {
	return string(r)
}

// Message is the shopper-facing text for the reason.
func (r BlockReason) Message() string {
	switch r {
	case BlockReasonEmptyCart:
		return "Your cart is empty."
	case BlockReasonOutOfStock:
		return "Some items are out of stock. Adjust the quantity or remove them to continue."
	case BlockReasonStockUnverified:
		return "We could not verify stock right now. Please try again."
	case BlockReasonBelowMinimum:
		return "Your order is below the minimum order value."
	default:
		return ""
	}
}

type CheckoutSummary struct {
	Subtotal       Money
	CouponDiscount Money
	ShippingFee    Money
	Total          Money

	OutOfStockLines     []LineKey
	EligibleForCheckout bool
	BlockReason         BlockReason
}
