package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

type zoneFeeDTO struct {
	Zone string          `json:"zone"`
	Fee  decimal.Decimal `json:"fee"`
}

type deliveryDTO struct {
	DefaultFee            decimal.Decimal `json:"defaultFee"`
	ZoneFees              []zoneFeeDTO    `json:"zoneFees"`
	FreeDeliveryThreshold decimal.Decimal `json:"freeDeliveryThreshold"`
	MinimumOrderValue     decimal.Decimal `json:"minimumOrderValue"`
	EstimatedDeliveryTime string          `json:"estimatedDeliveryTime"`
}

type addressDTO struct {
	Governorate string `json:"governorate"`
}

func (c *Client) DeliveryConfig(ctx context.Context) (domain.DeliveryConfig, error) {
	data, err := c.do(ctx, c.delivery, http.MethodGet, "/api/settings/delivery", nil)
	if err != nil {
		return domain.DeliveryConfig{}, fmt.Errorf("delivery: %w", err)
	}

	dto, err := decode[deliveryDTO](data)
	if err != nil {
		return domain.DeliveryConfig{}, fmt.Errorf("delivery: %w", err)
	}

	cfg := domain.DeliveryConfig{
		DefaultFee:            dto.DefaultFee,
		FreeDeliveryThreshold: dto.FreeDeliveryThreshold,
		MinimumOrderValue:     dto.MinimumOrderValue,
		EstimatedDeliveryTime: dto.EstimatedDeliveryTime,
	}
	for _, zf := range dto.ZoneFees {
		cfg.ZoneFees = append(cfg.ZoneFees, domain.ZoneFee{Zone: zf.Zone, Fee: zf.Fee})
	}

	return cfg, nil
}

// Zone returns the shopper's saved governorate, or "" without a saved address.
func (c *Client) Zone(ctx context.Context, ownerID string) (string, error) {
	data, err := c.do(ctx, c.address, http.MethodGet, "/api/users/"+url.PathEscape(ownerID)+"/address", nil)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("address: %w", err)
	}

	dto, err := decode[addressDTO](data)
	if err != nil {
		return "", fmt.Errorf("address: %w", err)
	}

	return dto.Governorate, nil
}
