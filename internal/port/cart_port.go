package port

import (
	"context"
	"errors"

	"github.com/nikolayk812/cart-checkout/internal/domain"
)

// ErrVersionConflict is returned by ApplyReconciliation when the cart moved
// past the expected version.
var ErrVersionConflict = errors.New("cart version conflict")

type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	CartVersion(ctx context.Context, ownerID string) (int64, error)

	AddLine(ctx context.Context, ownerID string, line domain.CartLine) error
	SetQuantity(ctx context.Context, ownerID string, key domain.LineKey, quantity int) (bool, error)
	RemoveLine(ctx context.Context, ownerID string, key domain.LineKey) (bool, error)

	SetCoupon(ctx context.Context, ownerID string, coupon domain.AppliedCoupon) error
	ClearCoupon(ctx context.Context, ownerID string) error

	// ApplyReconciliation atomically refreshes line snapshots, deletes removed
	// lines and optionally clears the coupon, provided the cart is still at
	// expectedVersion.
	ApplyReconciliation(ctx context.Context, ownerID string, expectedVersion int64, change domain.ReconciliationChange) error
}
