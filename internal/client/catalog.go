package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

type productsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type productDTO struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	HasDiscount  bool            `json:"hasDiscount"`
	Discount     decimal.Decimal `json:"discount"`
	Category     string          `json:"category"`
	CountInStock int             `json:"countInStock"`
	Variants     []variantDTO    `json:"variants"`
}

type variantDTO struct {
	ID     string          `json:"_id"`
	Color  string          `json:"color"`
	Price  decimal.Decimal `json:"price"`
	Stock  *int            `json:"stock"`
	Images []string        `json:"images"`
	Sizes  []sizeDTO       `json:"sizes"`
}

type sizeDTO struct {
	Size  string          `json:"size"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

func (c *Client) Products(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	data, err := c.do(ctx, c.catalog, http.MethodPost, "/api/products/bulk", productsRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	dtos, err := decode[[]productDTO](data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(dtos))
	for _, dto := range dtos {
		product, err := mapProductToDomain(dto)
		if err != nil {
			return nil, fmt.Errorf("mapProductToDomain: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}

func mapProductToDomain(dto productDTO) (domain.Product, error) {
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product id[%s] is not valid: %w", dto.ID, err)
	}

	product := domain.Product{
		ID:           id,
		Name:         dto.Name,
		Image:        dto.Image,
		BasePrice:    dto.Price,
		HasDiscount:  dto.HasDiscount,
		DiscountRate: dto.Discount,
		Category:     dto.Category,
		CountInStock: dto.CountInStock,
	}

	for _, v := range dto.Variants {
		variant := domain.Variant{
			ID:     v.ID,
			Color:  v.Color,
			Price:  v.Price,
			Stock:  v.Stock,
			Images: v.Images,
		}
		for _, s := range v.Sizes {
			variant.Sizes = append(variant.Sizes, domain.Size{Label: s.Size, Stock: s.Stock, Price: s.Price})
		}
		product.Variants = append(product.Variants, variant)
	}

	return product, nil
}
