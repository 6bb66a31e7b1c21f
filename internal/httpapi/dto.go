package httpapi

import (
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/service"
)

type lineRequestDTO struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	SizeLabel string `json:"size_label,omitempty"`
	Quantity  int    `json:"quantity"`
}

type couponRequestDTO struct {
	Code string `json:"code"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type moneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type lineKeyDTO struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	SizeLabel string `json:"size_label,omitempty"`
}

type lineDTO struct {
	lineKeyDTO
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Image     string `json:"image,omitempty"`
	Category  string `json:"category,omitempty"`
	Stock     int    `json:"stock"`

	Available      bool   `json:"available"`
	StockSource    string `json:"stock_source,omitempty"`
	AvailableStock *int   `json:"available_stock,omitempty"`
	StockReason    string `json:"stock_reason,omitempty"`
}

type removedLineDTO struct {
	lineKeyDTO
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type couponDTO struct {
	Code         string   `json:"code"`
	DiscountRate string   `json:"discount_rate"`
	Categories   []string `json:"categories,omitempty"`
}

type summaryDTO struct {
	Subtotal       moneyDTO `json:"subtotal"`
	CouponDiscount moneyDTO `json:"coupon_discount"`
	ShippingFee    moneyDTO `json:"shipping_fee"`
	Total          moneyDTO `json:"total"`

	OutOfStockLines     []lineKeyDTO `json:"out_of_stock_lines"`
	EligibleForCheckout bool         `json:"eligible_for_checkout"`
	BlockReason         string       `json:"block_reason,omitempty"`
	BlockMessage        string       `json:"block_message,omitempty"`
}

type checkoutResponseDTO struct {
	Version               int64            `json:"version"`
	Lines                 []lineDTO        `json:"lines"`
	Removed               []removedLineDTO `json:"removed"`
	Coupon                *couponDTO       `json:"coupon"`
	CouponRevoked         bool             `json:"coupon_revoked"`
	StockUnverified       bool             `json:"stock_unverified"`
	Summary               summaryDTO       `json:"summary"`
	EstimatedDeliveryTime string           `json:"estimated_delivery_time,omitempty"`
}

func mapResultToDTO(result service.CheckoutResult) checkoutResponseDTO {
	resp := checkoutResponseDTO{
		Version:               result.Version,
		Lines:                 make([]lineDTO, 0, len(result.Lines)),
		Removed:               make([]removedLineDTO, 0, len(result.Removed)),
		CouponRevoked:         result.CouponRevoked,
		StockUnverified:       result.Verdicts.Unverified,
		Summary:               mapSummaryToDTO(result.Summary),
		EstimatedDeliveryTime: result.EstimatedDeliveryTime,
	}

	for _, line := range result.Lines {
		dto := lineDTO{
			lineKeyDTO: mapLineKeyToDTO(line.Key()),
			Quantity:   line.Quantity,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice.String(),
			Image:      line.Image,
			Category:   line.Category,
			Stock:      line.Stock,
			Available:  true,
		}
		if verdict, ok := result.Verdicts.PerLine[line.Key()]; ok {
			dto.Available = verdict.Available
			dto.StockSource = string(verdict.Source)
			dto.AvailableStock = verdict.AvailableStock
			dto.StockReason = verdict.Reason
		}
		resp.Lines = append(resp.Lines, dto)
	}

	for _, removed := range result.Removed {
		resp.Removed = append(resp.Removed, removedLineDTO{
			lineKeyDTO: mapLineKeyToDTO(removed.Line.Key()),
			Name:       removed.Line.Name,
			Reason:     string(removed.Reason),
		})
	}

	if result.Coupon != nil {
		resp.Coupon = &couponDTO{
			Code:         result.Coupon.Code,
			DiscountRate: result.Coupon.DiscountRate.String(),
			Categories:   result.Coupon.Categories,
		}
	}

	return resp
}

func mapSummaryToDTO(summary domain.CheckoutSummary) summaryDTO {
	dto := summaryDTO{
		Subtotal:            mapMoneyToDTO(summary.Subtotal),
		CouponDiscount:      mapMoneyToDTO(summary.CouponDiscount),
		ShippingFee:         mapMoneyToDTO(summary.ShippingFee),
		Total:               mapMoneyToDTO(summary.Total),
		OutOfStockLines:     make([]lineKeyDTO, 0, len(summary.OutOfStockLines)),
		EligibleForCheckout: summary.EligibleForCheckout,
		BlockReason:         summary.BlockReason.String(),
		BlockMessage:        summary.BlockReason.Message(),
	}

	for _, key := range summary.OutOfStockLines {
		dto.OutOfStockLines = append(dto.OutOfStockLines, mapLineKeyToDTO(key))
	}

	return dto
}

func mapMoneyToDTO(m domain.Money) moneyDTO {
	return moneyDTO{Amount: m.Fixed(), Currency: m.Currency.String()}
}

func mapLineKeyToDTO(key domain.LineKey) lineKeyDTO {
	return lineKeyDTO{
		ProductID: key.ProductID.String(),
		VariantID: key.VariantID,
		SizeLabel: key.SizeLabel,
	}
}
