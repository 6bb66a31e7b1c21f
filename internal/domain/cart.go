package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	OwnerID string
	Version int64
	Lines   []CartLine
	Coupon  *AppliedCoupon
}

// LineKey identifies a cart line. Empty VariantID or SizeLabel means the
// line does not select one.
type LineKey struct {
	ProductID uuid.UUID
	VariantID string
	SizeLabel string
}

func (k LineKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ProductID, k.VariantID, k.SizeLabel)
}

type CartLine struct {
	ProductID uuid.UUID
	VariantID string
	SizeLabel string
	Quantity  int

	// snapshot of catalog data, refreshed by reconciliation
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	Category  string
	Stock     int

	CreatedAt time.Time
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID, SizeLabel: l.SizeLabel}
}

func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type AppliedCoupon struct {
	Code         string
	DiscountRate decimal.Decimal
	// Categories empty means the coupon applies to the whole cart.
	Categories []string
}

func (c AppliedCoupon) Scoped() bool {
	return len(c.Categories) > 0
}

func (c AppliedCoupon) Covers(category string) bool {
	if !c.Scoped() {
		return true
	}
	for _, allowed := range c.Categories {
		if allowed == category {
			return true
		}
	}
	return false
}

// ReconciliationChange is what a reconciliation pass asks the cart store to
// commit in one step.
type ReconciliationChange struct {
	Refreshed   []CartLine
	Removed     []LineKey
	ClearCoupon bool
}

func (c ReconciliationChange) IsEmpty() bool {
	return len(c.Refreshed) == 0 && len(c.Removed) == 0 && !c.ClearCoupon
}
