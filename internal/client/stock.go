package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
)

type stockItemDTO struct {
	ProductID uuid.UUID `json:"productId"`
	VariantID *string   `json:"variantId"`
	Size      *string   `json:"size"`
	Quantity  int       `json:"quantity"`
}

type stockRequest struct {
	Items []stockItemDTO `json:"items"`
}

type shortageDTO struct {
	ProductID      uuid.UUID `json:"productId"`
	VariantID      *string   `json:"variantId"`
	Size           *string   `json:"size"`
	AvailableStock *int      `json:"availableStock"`
	Reason         string    `json:"reason"`
}

type stockResponse struct {
	Insufficient []shortageDTO `json:"insufficient"`
}

func (c *Client) CheckStock(ctx context.Context, queries []domain.StockQuery) ([]domain.StockShortage, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	req := stockRequest{Items: make([]stockItemDTO, 0, len(queries))}
	for _, q := range queries {
		req.Items = append(req.Items, stockItemDTO{
			ProductID: q.Key.ProductID,
			VariantID: optional(q.Key.VariantID),
			Size:      optional(q.Key.SizeLabel),
			Quantity:  q.Quantity,
		})
	}

	data, err := c.do(ctx, c.stock, http.MethodPost, "/api/products/check-stock", req)
	if err != nil {
		return nil, fmt.Errorf("stock: %w", err)
	}

	resp, err := decode[stockResponse](data)
	if err != nil {
		return nil, fmt.Errorf("stock: %w", err)
	}

	shortages := make([]domain.StockShortage, 0, len(resp.Insufficient))
	for _, s := range resp.Insufficient {
		shortages = append(shortages, domain.StockShortage{
			Key: domain.LineKey{
				ProductID: s.ProductID,
				VariantID: deref(s.VariantID),
				SizeLabel: deref(s.Size),
			},
			AvailableStock: s.AvailableStock,
			Reason:         s.Reason,
		})
	}

	return shortages, nil
}

// optional maps an empty identifier to JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
