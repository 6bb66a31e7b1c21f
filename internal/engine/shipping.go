package engine

import (
	"strings"

	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// ComputeShipping resolves the shipping fee for one order. The zone fee
// overrides the default; the free delivery threshold is checked last and
// overrides both. An empty zone keeps the default fee.
func ComputeShipping(cfg domain.DeliveryConfig, zone string, postCouponSubtotal decimal.Decimal) decimal.Decimal {
	fee := cfg.DefaultFee

	if want := normalizeZone(zone); want != "" {
		for _, zf := range cfg.ZoneFees {
			if normalizeZone(zf.Zone) == want {
				fee = zf.Fee
				break
			}
		}
	}

	if cfg.FreeDeliveryThreshold.IsPositive() && postCouponSubtotal.GreaterThanOrEqual(cfg.FreeDeliveryThreshold) {
		fee = decimal.Zero
	}

	return fee
}

func normalizeZone(zone string) string {
	return cases.Fold().String(strings.TrimSpace(zone))
}
