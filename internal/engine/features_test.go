package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/engine"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type checkoutTestContext struct {
	currency  currency.Unit
	products  map[string]domain.Product
	lines     []domain.CartLine
	shortages []domain.StockShortage
	stockErr  error
	delivery  domain.DeliveryConfig
	zone      string
	validator *stubValidator
	coupon    *domain.AppliedCoupon
	revoked   bool
	result    engine.Reconciliation
	summary   domain.CheckoutSummary
}

func (c *checkoutTestContext) reset() {
	*c = checkoutTestContext{
		products:  make(map[string]domain.Product),
		validator: &stubValidator{},
	}
}

func (c *checkoutTestContext) theCurrencyIs(code string) error {
	cur, err := currency.ParseISO(code)
	if err != nil {
		return err
	}
	c.currency = cur
	return nil
}

func (c *checkoutTestContext) aDiscountedProduct(name, category, price, rate string) error {
	c.products[name] = domain.Product{
		ID:           uuid.New(),
		Name:         name,
		BasePrice:    decimal.RequireFromString(price),
		HasDiscount:  true,
		DiscountRate: decimal.RequireFromString(rate),
		Category:     category,
	}
	return nil
}

func (c *checkoutTestContext) aProductWithStock(name, category, price string, stock int) error {
	c.products[name] = domain.Product{
		ID:           uuid.New(),
		Name:         name,
		BasePrice:    decimal.RequireFromString(price),
		Category:     category,
		CountInStock: stock,
	}
	return nil
}

func (c *checkoutTestContext) productHasVariantWithSize(name, variantID, size, price string, stock int) error {
	p, ok := c.products[name]
	if !ok {
		return fmt.Errorf("unknown product %q", name)
	}
	p.Variants = append(p.Variants, domain.Variant{
		ID:    variantID,
		Sizes: []domain.Size{{Label: size, Stock: stock, Price: decimal.RequireFromString(price)}},
	})
	c.products[name] = p
	return nil
}

func (c *checkoutTestContext) cartHoldsVariant(qty int, name, variantID, size string) error {
	p, ok := c.products[name]
	if !ok {
		return fmt.Errorf("unknown product %q", name)
	}
	c.lines = append(c.lines, domain.CartLine{ProductID: p.ID, VariantID: variantID, SizeLabel: size, Quantity: qty})
	return nil
}

func (c *checkoutTestContext) cartHolds(qty int, name string) error {
	return c.cartHoldsVariant(qty, name, "", "")
}

func (c *checkoutTestContext) cartHoldsDeleted(qty int) error {
	c.lines = append(c.lines, domain.CartLine{ProductID: uuid.New(), Quantity: qty})
	return nil
}

func (c *checkoutTestContext) couponServiceAccepts(code, rate, categories string) error {
	c.validator.resp = domain.CouponValidation{
		Valid:        true,
		Code:         code,
		DiscountRate: decimal.RequireFromString(rate),
		Categories:   strings.Split(categories, ","),
	}
	return nil
}

func (c *checkoutTestContext) deliveryWithZone(def, zone, fee, threshold string) error {
	c.delivery = domain.DeliveryConfig{
		DefaultFee:            decimal.RequireFromString(def),
		ZoneFees:              []domain.ZoneFee{{Zone: zone, Fee: decimal.RequireFromString(fee)}},
		FreeDeliveryThreshold: decimal.RequireFromString(threshold),
	}
	return nil
}

func (c *checkoutTestContext) deliveryWithMinimum(def, minimum string) error {
	c.delivery = domain.DeliveryConfig{
		DefaultFee:        decimal.RequireFromString(def),
		MinimumOrderValue: decimal.RequireFromString(minimum),
	}
	return nil
}

func (c *checkoutTestContext) shopperShipsTo(zone string) error {
	c.zone = zone
	return nil
}

func (c *checkoutTestContext) stockServiceReports(available int, name string) error {
	p, ok := c.products[name]
	if !ok {
		return fmt.Errorf("unknown product %q", name)
	}
	c.shortages = append(c.shortages, domain.StockShortage{
		Key:            domain.LineKey{ProductID: p.ID},
		AvailableStock: &available,
	})
	return nil
}

func (c *checkoutTestContext) stockServiceUnreachable() error {
	c.stockErr = errors.New("stock service unreachable")
	return nil
}

func (c *checkoutTestContext) catalog() map[uuid.UUID]domain.Product {
	catalog := make(map[uuid.UUID]domain.Product, len(c.products))
	for _, p := range c.products {
		catalog[p.ID] = p
	}
	return catalog
}

func (c *checkoutTestContext) couponIsApplied(ctx context.Context, code string) error {
	rec := engine.Reconcile(c.lines, c.catalog())
	applied, err := engine.NewCouponEvaluator(c.validator).Apply(ctx, code, rec.Lines, engine.Subtotal(rec.Lines))
	if err != nil {
		return err
	}
	c.coupon = &applied
	return nil
}

func (c *checkoutTestContext) lineIsRemoved(name string) error {
	p, ok := c.products[name]
	if !ok {
		return fmt.Errorf("unknown product %q", name)
	}
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != p.ID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
	return nil
}

func (c *checkoutTestContext) checkoutIsEvaluated() error {
	c.result = engine.Reconcile(c.lines, c.catalog())
	lines := c.result.Lines

	var revoked bool
	c.coupon, revoked = engine.EnforceCouponScope(c.coupon, lines)
	c.revoked = c.revoked || revoked

	stock := engine.ValidateStock(lines, domain.StockReport{Shortages: c.shortages, Err: c.stockErr})
	subtotal := engine.Subtotal(lines)
	postCoupon := subtotal.Sub(engine.CouponDiscount(c.coupon, lines, subtotal))

	c.summary = engine.Evaluate(engine.GateInput{
		Lines:       lines,
		Stock:       stock,
		Coupon:      c.coupon,
		ShippingFee: engine.ComputeShipping(c.delivery, c.zone, postCoupon),
		Delivery:    c.delivery,
		Currency:    c.currency,
	})
	return nil
}

func expectAmount(what string, want string, got decimal.Decimal) error {
	if !decimal.RequireFromString(want).Equal(got) {
		return fmt.Errorf("%s: want %s, got %s", what, want, got)
	}
	return nil
}

func (c *checkoutTestContext) lineHasUnitPrice(name, price string) error {
	p := c.products[name]
	for _, l := range c.result.Lines {
		if l.ProductID == p.ID {
			return expectAmount("unit price", price, l.UnitPrice)
		}
	}
	return fmt.Errorf("line %q not in cart", name)
}

func (c *checkoutTestContext) subtotalIs(want string) error {
	return expectAmount("subtotal", want, c.summary.Subtotal.Amount)
}

func (c *checkoutTestContext) couponDiscountIs(want string) error {
	return expectAmount("coupon discount", want, c.summary.CouponDiscount.Amount)
}

func (c *checkoutTestContext) shippingFeeIs(want string) error {
	return expectAmount("shipping fee", want, c.summary.ShippingFee.Amount)
}

func (c *checkoutTestContext) totalIs(want string) error {
	return expectAmount("total", want, c.summary.Total.Amount)
}

func (c *checkoutTestContext) linesRemoved(n int) error {
	if len(c.result.Removed) != n {
		return fmt.Errorf("removed lines: want %d, got %d", n, len(c.result.Removed))
	}
	return nil
}

func (c *checkoutTestContext) cartHasLines(n int) error {
	if len(c.result.Lines) != n {
		return fmt.Errorf("cart lines: want %d, got %d", n, len(c.result.Lines))
	}
	return nil
}

func (c *checkoutTestContext) checkoutBlockedWith(reason string) error {
	if c.summary.EligibleForCheckout {
		return errors.New("checkout is eligible")
	}
	if string(c.summary.BlockReason) != reason {
		return fmt.Errorf("block reason: want %s, got %s", reason, c.summary.BlockReason)
	}
	return nil
}

func (c *checkoutTestContext) couponIsRevoked() error {
	if !c.revoked || c.coupon != nil {
		return errors.New("coupon still active")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the currency is "([^"]*)"$`, tc.theCurrencyIs)
	ctx.Step(`^a product "([^"]*)" in category "([^"]*)" priced ([\d.]+) with a discount of ([\d.]+)$`, tc.aDiscountedProduct)
	ctx.Step(`^a product "([^"]*)" in category "([^"]*)" priced ([\d.]+) with stock (\d+)$`, tc.aProductWithStock)
	ctx.Step(`^the product "([^"]*)" has variant "([^"]*)" with size "([^"]*)" priced ([\d.]+) and stock (\d+)$`, tc.productHasVariantWithSize)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)" variant "([^"]*)" size "([^"]*)"$`, tc.cartHoldsVariant)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.cartHolds)
	ctx.Step(`^the cart holds (\d+) of a deleted product$`, tc.cartHoldsDeleted)
	ctx.Step(`^the coupon service accepts "([^"]*)" at rate ([\d.]+) for categories "([^"]*)"$`, tc.couponServiceAccepts)
	ctx.Step(`^delivery costs ([\d.]+) by default and ([\d.]+) to "([^"]*)" with free delivery from ([\d.]+)$`,
		func(def, fee, zone, threshold string) error { return tc.deliveryWithZone(def, zone, fee, threshold) })
	ctx.Step(`^delivery costs ([\d.]+) by default with a minimum order of ([\d.]+)$`, tc.deliveryWithMinimum)
	ctx.Step(`^the shopper ships to "([^"]*)"$`, tc.shopperShipsTo)
	ctx.Step(`^the stock service reports (\d+) available for "([^"]*)"$`, tc.stockServiceReports)
	ctx.Step(`^the stock service is unreachable$`, tc.stockServiceUnreachable)
	ctx.Step(`^the coupon "([^"]*)" is applied$`, tc.couponIsApplied)
	ctx.Step(`^the line "([^"]*)" is removed$`, tc.lineIsRemoved)
	ctx.Step(`^the checkout is evaluated$`, tc.checkoutIsEvaluated)
	ctx.Step(`^the line "([^"]*)" has unit price ([\d.]+)$`, tc.lineHasUnitPrice)
	ctx.Step(`^the subtotal is ([\d.]+)$`, tc.subtotalIs)
	ctx.Step(`^the coupon discount is ([\d.]+)$`, tc.couponDiscountIs)
	ctx.Step(`^the shipping fee is ([\d.]+)$`, tc.shippingFeeIs)
	ctx.Step(`^the total is ([\d.]+)$`, tc.totalIs)
	ctx.Step(`^(\d+) lines? (?:is|are) removed$`, tc.linesRemoved)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.cartHasLines)
	ctx.Step(`^checkout is blocked with reason "([^"]*)"$`, tc.checkoutBlockedWith)
	ctx.Step(`^the coupon is revoked$`, tc.couponIsRevoked)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
