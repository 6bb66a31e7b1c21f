package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponRequest struct {
	Code      string
	CartTotal decimal.Decimal
	Items     []CouponItem
}

type CouponItem struct {
	ProductID  uuid.UUID
	Quantity   int
	Price      decimal.Decimal
	CategoryID string
	VariantID  string
	SizeLabel  string
}

type CouponValidation struct {
	Valid        bool
	Code         string
	DiscountRate decimal.Decimal
	Categories   []string
	Message      string
}
