package domain

import "github.com/shopspring/decimal"

type DeliveryConfig struct {
	DefaultFee            decimal.Decimal
	ZoneFees              []ZoneFee
	FreeDeliveryThreshold decimal.Decimal
	MinimumOrderValue     decimal.Decimal
	EstimatedDeliveryTime string
}

type ZoneFee struct {
	Zone string
	Fee  decimal.Decimal
}
