package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cart-checkout/internal/db"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/port"
)

type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Cart, error) {
		version, err := cartVersion(ctx, q, ownerID)
		if err != nil {
			return domain.Cart{}, err
		}

		rows, err := q.GetCartLines(ctx, ownerID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.GetCartLines: %w", err)
		}

		coupon, err := getCoupon(ctx, q, ownerID)
		if err != nil {
			return domain.Cart{}, err
		}

		return domain.Cart{
			OwnerID: ownerID,
			Version: version,
			Lines:   mapGetCartLinesRowsToDomain(rows),
			Coupon:  coupon,
		}, nil
	})
}

func (r *cartRepository) CartVersion(ctx context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, fmt.Errorf("ownerID is empty")
	}

	return cartVersion(ctx, r.q, ownerID)
}

func (r *cartRepository) AddLine(ctx context.Context, ownerID string, line domain.CartLine) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if line.Quantity < 1 {
		return fmt.Errorf("quantity must be positive")
	}
	if line.Quantity > math.MaxInt32 {
		return fmt.Errorf("quantity is out of range")
	}

	_, err := mutate(ctx, r.pool, r.q, ownerID, func(q *db.Queries) (struct{}, error) {
		err := q.AddLine(ctx, db.AddLineParams{
			OwnerID:   ownerID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			SizeLabel: line.SizeLabel,
			Quantity:  int32(line.Quantity),
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Image:     line.Image,
			Category:  line.Category,
			Stock:     clampInt32(line.Stock),
		})
		if err != nil {
			return struct{}{}, fmt.Errorf("q.AddLine: %w", err)
		}
		return struct{}{}, nil
	})

	return err
}

func (r *cartRepository) SetQuantity(ctx context.Context, ownerID string, key domain.LineKey, quantity int) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}
	if quantity < 1 {
		return false, fmt.Errorf("quantity must be positive")
	}
	if quantity > math.MaxInt32 {
		return false, fmt.Errorf("quantity is out of range")
	}

	return mutate(ctx, r.pool, r.q, ownerID, func(q *db.Queries) (bool, error) {
		rowsAffected, err := q.SetLineQuantity(ctx, db.SetLineQuantityParams{
			OwnerID:   ownerID,
			ProductID: key.ProductID,
			VariantID: key.VariantID,
			SizeLabel: key.SizeLabel,
			Quantity:  int32(quantity),
		})
		if err != nil {
			return false, fmt.Errorf("q.SetLineQuantity: %w", err)
		}
		return rowsAffected > 0, nil
	})
}

func (r *cartRepository) RemoveLine(ctx context.Context, ownerID string, key domain.LineKey) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}

	return mutate(ctx, r.pool, r.q, ownerID, func(q *db.Queries) (bool, error) {
		rowsAffected, err := q.DeleteLine(ctx, deleteLineParams(ownerID, key))
		if err != nil {
			return false, fmt.Errorf("q.DeleteLine: %w", err)
		}
		return rowsAffected > 0, nil
	})
}

func (r *cartRepository) SetCoupon(ctx context.Context, ownerID string, coupon domain.AppliedCoupon) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if coupon.Code == "" {
		return fmt.Errorf("coupon code is empty")
	}

	categories := coupon.Categories
	if categories == nil {
		categories = []string{}
	}

	_, err := mutate(ctx, r.pool, r.q, ownerID, func(q *db.Queries) (struct{}, error) {
		err := q.UpsertCoupon(ctx, db.UpsertCouponParams{
			OwnerID:      ownerID,
			Code:         coupon.Code,
			DiscountRate: coupon.DiscountRate,
			Categories:   categories,
		})
		if err != nil {
			return struct{}{}, fmt.Errorf("q.UpsertCoupon: %w", err)
		}
		return struct{}{}, nil
	})

	return err
}

func (r *cartRepository) ClearCoupon(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	_, err := mutate(ctx, r.pool, r.q, ownerID, func(q *db.Queries) (struct{}, error) {
		if _, err := q.DeleteCoupon(ctx, ownerID); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteCoupon: %w", err)
		}
		return struct{}{}, nil
	})

	return err
}

func (r *cartRepository) ApplyReconciliation(ctx context.Context, ownerID string, expectedVersion int64, change domain.ReconciliationChange) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if change.IsEmpty() {
		return nil
	}

	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (struct{}, error) {
		version, err := q.LockCartVersion(ctx, ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return struct{}{}, fmt.Errorf("cart[%s]: %w", ownerID, port.ErrVersionConflict)
		}
		if err != nil {
			return struct{}{}, fmt.Errorf("q.LockCartVersion: %w", err)
		}
		if version != expectedVersion {
			return struct{}{}, fmt.Errorf("cart[%s] at version %d, expected %d: %w", ownerID, version, expectedVersion, port.ErrVersionConflict)
		}

		for _, line := range change.Refreshed {
			if err := q.RefreshLine(ctx, refreshLineParams(ownerID, line)); err != nil {
				return struct{}{}, fmt.Errorf("q.RefreshLine: %w", err)
			}
		}

		for _, key := range change.Removed {
			if _, err := q.DeleteLine(ctx, deleteLineParams(ownerID, key)); err != nil {
				return struct{}{}, fmt.Errorf("q.DeleteLine: %w", err)
			}
		}

		if change.ClearCoupon {
			if _, err := q.DeleteCoupon(ctx, ownerID); err != nil {
				return struct{}{}, fmt.Errorf("q.DeleteCoupon: %w", err)
			}
		}

		return struct{}{}, nil
	})

	return err
}

func cartVersion(ctx context.Context, q *db.Queries, ownerID string) (int64, error) {
	version, err := q.GetCartVersion(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("q.GetCartVersion: %w", err)
	}
	return version, nil
}

func getCoupon(ctx context.Context, q *db.Queries, ownerID string) (*domain.AppliedCoupon, error) {
	row, err := q.GetCoupon(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("q.GetCoupon: %w", err)
	}

	coupon := &domain.AppliedCoupon{
		Code:         row.Code,
		DiscountRate: row.DiscountRate,
	}
	if len(row.Categories) > 0 {
		coupon.Categories = row.Categories
	}

	return coupon, nil
}

func deleteLineParams(ownerID string, key domain.LineKey) db.DeleteLineParams {
	return db.DeleteLineParams{
		OwnerID:   ownerID,
		ProductID: key.ProductID,
		VariantID: key.VariantID,
		SizeLabel: key.SizeLabel,
	}
}

func refreshLineParams(ownerID string, line domain.CartLine) db.RefreshLineParams {
	return db.RefreshLineParams{
		OwnerID:   ownerID,
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		SizeLabel: line.SizeLabel,
		Name:      line.Name,
		UnitPrice: line.UnitPrice,
		Image:     line.Image,
		Category:  line.Category,
		Stock:     clampInt32(line.Stock),
	}
}

// clampInt32 fits a catalog stock figure into the stock column. Figures past
// the column range keep their sign, which is all the local stock check reads.
func clampInt32(v int) int32 {
	return int32(max(min(v, math.MaxInt32), math.MinInt32))
}

func mapGetCartLinesRowToDomain(row db.GetCartLinesRow) domain.CartLine {
	return domain.CartLine{
		ProductID: row.ProductID,
		VariantID: row.VariantID,
		SizeLabel: row.SizeLabel,
		Quantity:  int(row.Quantity),
		Name:      row.Name,
		UnitPrice: row.UnitPrice,
		Image:     row.Image,
		Category:  row.Category,
		Stock:     int(row.Stock),
		CreatedAt: row.CreatedAt,
	}
}

func mapGetCartLinesRowsToDomain(rows []db.GetCartLinesRow) []domain.CartLine {
	var lines []domain.CartLine

	for _, row := range rows {
		lines = append(lines, mapGetCartLinesRowToDomain(row))
	}

	return lines
}
