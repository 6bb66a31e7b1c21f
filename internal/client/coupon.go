package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

type couponItemDTO struct {
	ProductID  uuid.UUID       `json:"productId"`
	Qty        int             `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	CategoryID string          `json:"categoryId"`
	VariantID  *string         `json:"variantId"`
	Size       *string         `json:"size"`
}

type couponRequest struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cartTotal"`
	Items     []couponItemDTO `json:"items"`
}

type couponResponse struct {
	Valid        bool            `json:"valid"`
	Code         string          `json:"code"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Categories   []string        `json:"categories"`
	Message      string          `json:"message"`
}

// ValidateCoupon asks the coupon service about req. A 4xx answer is a
// rejection, not a failure: its body is decoded like a normal response and
// the result is marked invalid.
func (c *Client) ValidateCoupon(ctx context.Context, req domain.CouponRequest) (domain.CouponValidation, error) {
	body := couponRequest{
		Code:      req.Code,
		CartTotal: req.CartTotal,
		Items:     make([]couponItemDTO, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, couponItemDTO{
			ProductID:  item.ProductID,
			Qty:        item.Quantity,
			Price:      item.Price,
			CategoryID: item.CategoryID,
			VariantID:  optional(item.VariantID),
			Size:       optional(item.SizeLabel),
		})
	}

	data, err := c.do(ctx, c.coupon, http.MethodPost, "/api/coupons/validate", body)

	rejected := false
	if err != nil {
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError:
			rejected = true
		case errors.Is(err, ErrNotFound):
			rejected = true
		default:
			return domain.CouponValidation{}, fmt.Errorf("coupon: %w", err)
		}
	}

	var resp couponResponse
	if len(data) > 0 {
		resp, err = decode[couponResponse](data)
		if err != nil && !rejected {
			return domain.CouponValidation{}, fmt.Errorf("coupon: %w", err)
		}
	}

	if rejected {
		resp.Valid = false
	}

	return domain.CouponValidation{
		Valid:        resp.Valid,
		Code:         resp.Code,
		DiscountRate: resp.DiscountRate,
		Categories:   resp.Categories,
		Message:      resp.Message,
	}, nil
}
