package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/port"
	"github.com/shopspring/decimal"
)

type RejectionReason string

const (
	RejectionEmptyCode          RejectionReason = "empty_code"
	RejectionInvalid            RejectionReason = "invalid"
	RejectionZeroDiscount       RejectionReason = "zero_discount"
	RejectionNotApplicable      RejectionReason = "not_applicable"
	RejectionVerificationFailed RejectionReason = "verification_failed"
)

var defaultRejectionMessages = map[RejectionReason]string{
	RejectionEmptyCode:          "Enter a coupon code.",
	RejectionInvalid:            "This coupon code is not valid.",
	RejectionZeroDiscount:       "This coupon does not give a discount.",
	RejectionNotApplicable:      "This coupon is not applicable to your cart contents.",
	RejectionVerificationFailed: "We could not verify this coupon. Please try again.",
}

// CouponRejection explains why a coupon was not applied. Message is the
// validation service's text when it gave one.
type CouponRejection struct {
	Reason  RejectionReason
	Message string
	Err     error
}

func newRejection(reason RejectionReason, message string, err error) *CouponRejection {
	if message == "" {
		message = defaultRejectionMessages[reason]
	}
	return &CouponRejection{Reason: reason, Message: message, Err: err}
}

func (r *CouponRejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("coupon rejected: %s: %s: %v", r.Reason, r.Message, r.Err)
	}
	return fmt.Sprintf("coupon rejected: %s: %s", r.Reason, r.Message)
}

func (r *CouponRejection) Unwrap() error {
	return r.Err
}

type CouponEvaluator struct {
	validator port.CouponValidator
}

func NewCouponEvaluator(validator port.CouponValidator) *CouponEvaluator {
	return &CouponEvaluator{validator: validator}
}

// Apply validates code against the reconciled cart. On success the returned
// coupon replaces any active one. Rejections are returned as *CouponRejection.
func (e *CouponEvaluator) Apply(ctx context.Context, code string, lines []domain.CartLine, subtotal decimal.Decimal) (domain.AppliedCoupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.AppliedCoupon{}, newRejection(RejectionEmptyCode, "", nil)
	}

	resp, err := e.validator.ValidateCoupon(ctx, couponRequest(code, lines, subtotal))
	if err != nil {
		return domain.AppliedCoupon{}, newRejection(RejectionVerificationFailed, "", fmt.Errorf("validator.ValidateCoupon: %w", err))
	}

	if !resp.Valid {
		return domain.AppliedCoupon{}, newRejection(RejectionInvalid, resp.Message, nil)
	}

	if !resp.DiscountRate.IsPositive() {
		return domain.AppliedCoupon{}, newRejection(RejectionZeroDiscount, resp.Message, nil)
	}

	applied := domain.AppliedCoupon{
		Code:         code,
		DiscountRate: resp.DiscountRate,
		Categories:   resp.Categories,
	}
	if resp.Code != "" {
		applied.Code = resp.Code
	}

	if !hasEligibleLine(applied, lines) {
		return domain.AppliedCoupon{}, newRejection(RejectionNotApplicable, "", nil)
	}

	return applied, nil
}

func couponRequest(code string, lines []domain.CartLine, subtotal decimal.Decimal) domain.CouponRequest {
	items := make([]domain.CouponItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.CouponItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			Price:      line.UnitPrice,
			CategoryID: line.Category,
			VariantID:  line.VariantID,
			SizeLabel:  line.SizeLabel,
		})
	}

	return domain.CouponRequest{Code: code, CartTotal: subtotal, Items: items}
}

func hasEligibleLine(coupon domain.AppliedCoupon, lines []domain.CartLine) bool {
	if !coupon.Scoped() {
		return true
	}
	for _, line := range lines {
		if coupon.Covers(line.Category) {
			return true
		}
	}
	return false
}

// EnforceCouponScope drops a category-scoped coupon that no longer covers any
// line. It reports whether the coupon was revoked.
func EnforceCouponScope(coupon *domain.AppliedCoupon, lines []domain.CartLine) (*domain.AppliedCoupon, bool) {
	if coupon == nil {
		return nil, false
	}
	if hasEligibleLine(*coupon, lines) {
		return coupon, false
	}
	return nil, true
}

// CouponDiscount prorates the coupon over the lines it covers. A cart-wide
// coupon discounts the whole subtotal. The result is clamped to
// [0, discounted base].
func CouponDiscount(coupon *domain.AppliedCoupon, lines []domain.CartLine, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || !coupon.DiscountRate.IsPositive() {
		return decimal.Zero
	}

	base := subtotal
	if coupon.Scoped() {
		base = decimal.Zero
		for _, line := range lines {
			if coupon.Covers(line.Category) {
				base = base.Add(line.Total())
			}
		}
	}

	if !base.IsPositive() {
		return decimal.Zero
	}

	discount := base.Mul(coupon.DiscountRate)
	if discount.GreaterThan(base) {
		return base
	}

	return discount
}
