package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/engine"
	"github.com/nikolayk812/cart-checkout/internal/port"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"
)

// maxAttempts bounds how often Checkout recomputes after a concurrent
// mutation invalidated the previous pass.
const maxAttempts = 3

// Collaborators are the remote sources the checkout pipeline reads from.
type Collaborators struct {
	Catalog  port.Catalog
	Stock    port.StockChecker
	Coupons  port.CouponValidator
	Delivery port.DeliveryConfigSource
	Address  port.AddressSource
}

type CheckoutService struct {
	repo     port.CartRepository
	catalog  port.Catalog
	stock    port.StockChecker
	coupons  *engine.CouponEvaluator
	delivery port.DeliveryConfigSource
	address  port.AddressSource
	currency currency.Unit
	logger   *zap.Logger
}

func NewCheckoutService(repo port.CartRepository, c Collaborators, unit currency.Unit, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		repo:     repo,
		catalog:  c.Catalog,
		stock:    c.Stock,
		coupons:  engine.NewCouponEvaluator(c.Coupons),
		delivery: c.Delivery,
		address:  c.Address,
		currency: unit,
		logger:   logger.Named("checkout"),
	}
}

// CheckoutResult is one consistent recomputation of a cart.
type CheckoutResult struct {
	// Version is the cart version the result was computed against.
	Version int64

	Lines    []domain.CartLine
	Removed  []engine.RemovedLine
	Verdicts engine.StockVerdict

	Coupon        *domain.AppliedCoupon
	CouponRevoked bool

	Summary               domain.CheckoutSummary
	EstimatedDeliveryTime string
}

type inputs struct {
	catalog  map[uuid.UUID]domain.Product
	delivery domain.DeliveryConfig
	zone     string
}

// Checkout recomputes the cart, retrying when a concurrent mutation made a
// pass stale.
func (s *CheckoutService) Checkout(ctx context.Context, ownerID string) (CheckoutResult, error) {
	return s.checkout(ctx, ownerID, CheckoutResult{})
}

// checkout retries stale passes. Removals and revocations committed by prior
// or by a discarded pass are still reported in the returned result.
func (s *CheckoutService) checkout(ctx context.Context, ownerID string, prior CheckoutResult) (CheckoutResult, error) {
	committed := prior

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var result CheckoutResult
		result, err = s.Recompute(ctx, ownerID)
		mergeCommitted(&result, committed)
		if !errors.Is(err, ErrStaleCartVersion) {
			return result, err
		}

		committed = result
		s.logger.Debug("stale recomputation, retrying",
			zap.String("owner_id", ownerID),
			zap.Int("attempt", attempt))
	}

	return CheckoutResult{Removed: committed.Removed, CouponRevoked: committed.CouponRevoked}, err
}

// Recompute runs one pass of the pipeline: reconcile, enforce coupon scope,
// validate stock, compute shipping and evaluate the gate. Reconciliation
// changes are persisted only if the cart is still at the version the pass
// started from. ErrStaleCartVersion is returned when the cart moved; a result
// returned with an error carries only the removals and revocation the pass
// already committed.
func (s *CheckoutService) Recompute(ctx context.Context, ownerID string) (CheckoutResult, error) {
	if ownerID == "" {
		return CheckoutResult{}, fmt.Errorf("ownerID is empty")
	}

	cart, err := s.repo.GetCart(ctx, ownerID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("repo.GetCart: %w", err)
	}

	in, err := s.load(ctx, cart)
	if err != nil {
		return CheckoutResult{}, err
	}

	rec := engine.Reconcile(cart.Lines, in.catalog)
	coupon, revoked := engine.EnforceCouponScope(cart.Coupon, rec.Lines)

	change := reconciliationChange(cart.Lines, rec, revoked)
	if !change.IsEmpty() {
		err := s.repo.ApplyReconciliation(ctx, ownerID, cart.Version, change)
		if errors.Is(err, port.ErrVersionConflict) {
			return CheckoutResult{}, fmt.Errorf("repo.ApplyReconciliation: %w", ErrStaleCartVersion)
		}
		if err != nil {
			return CheckoutResult{}, fmt.Errorf("repo.ApplyReconciliation: %w", err)
		}

		for _, removed := range rec.Removed {
			s.logger.Info("cart line removed",
				zap.String("owner_id", ownerID),
				zap.Stringer("line", removed.Line.Key()),
				zap.String("reason", string(removed.Reason)))
		}
		if revoked {
			s.logger.Info("coupon revoked",
				zap.String("owner_id", ownerID),
				zap.String("code", cart.Coupon.Code))
		}
	}

	committed := CheckoutResult{Removed: rec.Removed, CouponRevoked: revoked}

	report, err := s.checkStock(ctx, ownerID, rec.Lines)
	if err != nil {
		return committed, err
	}
	verdict := engine.ValidateStock(rec.Lines, report)

	version, err := s.repo.CartVersion(ctx, ownerID)
	if err != nil {
		return committed, fmt.Errorf("repo.CartVersion: %w", err)
	}
	if version != cart.Version {
		return committed, fmt.Errorf("cart[%s] at version %d, computed against %d: %w",
			ownerID, version, cart.Version, ErrStaleCartVersion)
	}

	subtotal := engine.Subtotal(rec.Lines)
	discount := engine.CouponDiscount(coupon, rec.Lines, subtotal)
	shipping := engine.ComputeShipping(in.delivery, in.zone, subtotal.Sub(discount))

	summary := engine.Evaluate(engine.GateInput{
		Lines:       rec.Lines,
		Stock:       verdict,
		Coupon:      coupon,
		ShippingFee: shipping,
		Delivery:    in.delivery,
		Currency:    s.currency,
	})

	return CheckoutResult{
		Version:               cart.Version,
		Lines:                 rec.Lines,
		Removed:               rec.Removed,
		Verdicts:              verdict,
		Coupon:                coupon,
		CouponRevoked:         revoked,
		Summary:               summary,
		EstimatedDeliveryTime: in.delivery.EstimatedDeliveryTime,
	}, nil
}

// load fetches the catalog snapshot, delivery configuration and destination
// zone concurrently. Catalog and delivery failures abort the pass; an
// unavailable address falls back to no zone.
func (s *CheckoutService) load(ctx context.Context, cart domain.Cart) (inputs, error) {
	var in inputs

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ids := productIDs(cart.Lines)
		in.catalog = make(map[uuid.UUID]domain.Product, len(ids))
		if len(ids) == 0 {
			return nil
		}

		products, err := s.catalog.Products(gctx, ids)
		if err != nil {
			return fmt.Errorf("catalog.Products: %w", err)
		}
		for _, p := range products {
			in.catalog[p.ID] = p
		}
		return nil
	})

	g.Go(func() error {
		cfg, err := s.delivery.DeliveryConfig(gctx)
		if err != nil {
			return fmt.Errorf("delivery.DeliveryConfig: %w", err)
		}
		in.delivery = cfg
		return nil
	})

	g.Go(func() error {
		zone, err := s.address.Zone(gctx, cart.OwnerID)
		if err != nil {
			s.logger.Warn("address unavailable, using default delivery fee",
				zap.String("owner_id", cart.OwnerID),
				zap.Error(err))
			return nil
		}
		in.zone = zone
		return nil
	})

	if err := g.Wait(); err != nil {
		return inputs{}, err
	}

	return in, nil
}

func (s *CheckoutService) checkStock(ctx context.Context, ownerID string, lines []domain.CartLine) (domain.StockReport, error) {
	if len(lines) == 0 {
		return domain.StockReport{}, nil
	}

	shortages, err := s.stock.CheckStock(ctx, engine.StockQueries(lines))
	if err != nil {
		if ctx.Err() != nil {
			return domain.StockReport{}, fmt.Errorf("stock.CheckStock: %w", ctx.Err())
		}
		s.logger.Warn("stock check failed, cart is unverified",
			zap.String("owner_id", ownerID),
			zap.Error(err))
		return domain.StockReport{Err: err}, nil
	}

	return domain.StockReport{Shortages: shortages}, nil
}

// AddLine adds quantity units of a product selection and recomputes the cart.
// The selection must exist in the catalog.
func (s *CheckoutService) AddLine(ctx context.Context, ownerID string, key domain.LineKey, quantity int) (CheckoutResult, error) {
	if quantity < 1 {
		return CheckoutResult{}, ErrInvalidQuantity
	}

	products, err := s.catalog.Products(ctx, []uuid.UUID{key.ProductID})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("catalog.Products: %w", err)
	}

	var product *domain.Product
	for i := range products {
		if products[i].ID == key.ProductID {
			product = &products[i]
			break
		}
	}
	if product == nil {
		return CheckoutResult{}, fmt.Errorf("product[%s]: %w", key.ProductID, ErrProductNotFound)
	}

	if _, err := engine.ResolveSelection(*product, key.VariantID, key.SizeLabel); err != nil {
		return CheckoutResult{}, fmt.Errorf("product[%s]: %w", key.ProductID, err)
	}

	line := domain.CartLine{
		ProductID: key.ProductID,
		VariantID: key.VariantID,
		SizeLabel: key.SizeLabel,
		Quantity:  quantity,
	}
	rec := engine.Reconcile([]domain.CartLine{line}, map[uuid.UUID]domain.Product{product.ID: *product})
	if len(rec.Lines) != 1 {
		return CheckoutResult{}, fmt.Errorf("product[%s]: %w", key.ProductID, ErrProductNotFound)
	}

	if err := s.repo.AddLine(ctx, ownerID, rec.Lines[0]); err != nil {
		return CheckoutResult{}, fmt.Errorf("repo.AddLine: %w", err)
	}

	return s.Checkout(ctx, ownerID)
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (s *CheckoutService) SetQuantity(ctx context.Context, ownerID string, key domain.LineKey, quantity int) (CheckoutResult, error) {
	if quantity < 0 {
		return CheckoutResult{}, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveLine(ctx, ownerID, key)
	}

	updated, err := s.repo.SetQuantity(ctx, ownerID, key, quantity)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("repo.SetQuantity: %w", err)
	}
	if !updated {
		return CheckoutResult{}, fmt.Errorf("line[%s]: %w", key, ErrLineNotFound)
	}

	return s.Checkout(ctx, ownerID)
}

func (s *CheckoutService) RemoveLine(ctx context.Context, ownerID string, key domain.LineKey) (CheckoutResult, error) {
	deleted, err := s.repo.RemoveLine(ctx, ownerID, key)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("repo.RemoveLine: %w", err)
	}
	if !deleted {
		return CheckoutResult{}, fmt.Errorf("line[%s]: %w", key, ErrLineNotFound)
	}

	return s.Checkout(ctx, ownerID)
}

// ApplyCoupon validates code against the reconciled cart and makes it the
// active coupon. A rejection is returned as *engine.CouponRejection together
// with the reconciled cart, and leaves the previously active coupon in place.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, ownerID, code string) (CheckoutResult, error) {
	current, err := s.Checkout(ctx, ownerID)
	if err != nil {
		return current, err
	}

	coupon, err := s.coupons.Apply(ctx, code, current.Lines, engine.Subtotal(current.Lines))
	if err != nil {
		var rejection *engine.CouponRejection
		if errors.As(err, &rejection) {
			s.logger.Info("coupon rejected",
				zap.String("owner_id", ownerID),
				zap.String("reason", string(rejection.Reason)),
				zap.Error(rejection.Err))
		}
		return current, err
	}

	if err := s.repo.SetCoupon(ctx, ownerID, coupon); err != nil {
		return current, fmt.Errorf("repo.SetCoupon: %w", err)
	}

	return s.checkout(ctx, ownerID, current)
}

func (s *CheckoutService) RemoveCoupon(ctx context.Context, ownerID string) (CheckoutResult, error) {
	if err := s.repo.ClearCoupon(ctx, ownerID); err != nil {
		return CheckoutResult{}, fmt.Errorf("repo.ClearCoupon: %w", err)
	}

	return s.Checkout(ctx, ownerID)
}

// mergeCommitted prepends removals and a revocation committed by an earlier
// pass to result.
func mergeCommitted(result *CheckoutResult, earlier CheckoutResult) {
	if len(earlier.Removed) > 0 {
		result.Removed = append(slices.Clone(earlier.Removed), result.Removed...)
	}
	result.CouponRevoked = result.CouponRevoked || earlier.CouponRevoked
}

func reconciliationChange(before []domain.CartLine, rec engine.Reconciliation, revoked bool) domain.ReconciliationChange {
	change := domain.ReconciliationChange{ClearCoupon: revoked}

	if rec.Changed(before) {
		change.Refreshed = rec.Lines
	}
	for _, removed := range rec.Removed {
		change.Removed = append(change.Removed, removed.Line.Key())
	}

	return change
}

func productIDs(lines []domain.CartLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
