package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
)

// Catalog returns the products that still exist among ids. Missing ids are
// treated as deleted.
type Catalog interface {
	Products(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
}

// StockChecker returns only the entries that are insufficient.
type StockChecker interface {
	CheckStock(ctx context.Context, queries []domain.StockQuery) ([]domain.StockShortage, error)
}

type CouponValidator interface {
	ValidateCoupon(ctx context.Context, req domain.CouponRequest) (domain.CouponValidation, error)
}

type DeliveryConfigSource interface {
	DeliveryConfig(ctx context.Context) (domain.DeliveryConfig, error)
}

// AddressSource returns the shopper's saved zone, or "" when none is saved.
type AddressSource interface {
	Zone(ctx context.Context, ownerID string) (string, error)
}
