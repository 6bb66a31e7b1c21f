// Package cache keeps catalog records in Redis in front of the storefront.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/port"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CatalogCache is a read-through Redis cache in front of a Catalog. Products
// missing upstream are not cached, so a deletion is seen as soon as the
// cached record expires.
type CatalogCache struct {
	client   *redis.Client
	upstream port.Catalog
	baseTTL  time.Duration
	logger   *zap.Logger
}

func NewCatalogCache(client *redis.Client, upstream port.Catalog, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{
		client:   client,
		upstream: upstream,
		baseTTL:  ttl,
		logger:   logger,
	}
}

func (c *CatalogCache) Products(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cached, missing, err := c.getMany(ctx, ids)
	if err != nil {
		c.logger.Warn("catalog cache read failed, using upstream", zap.Error(err))
		cached, missing = nil, ids
	}

	if len(missing) == 0 {
		return cached, nil
	}

	fetched, err := c.upstream.Products(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("upstream.Products: %w", err)
	}

	if err := c.setMany(ctx, fetched); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}

	return append(cached, fetched...), nil
}

// Invalidate drops the cached records of ids so the next read goes upstream.
func (c *CatalogCache) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(id))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func (c *CatalogCache) getMany(ctx context.Context, ids []uuid.UUID) ([]domain.Product, []uuid.UUID, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(id))
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis mget failed: %w", err)
	}

	var (
		products []domain.Product
		missing  []uuid.UUID
	)

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}

		var product domain.Product
		if err := json.Unmarshal([]byte(s), &product); err != nil {
			// corrupt entry, refetch
			missing = append(missing, ids[i])
			continue
		}
		products = append(products, product)
	}

	return products, missing, nil
}

func (c *CatalogCache) setMany(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, product := range products {
		data, err := json.Marshal(product)
		if err != nil {
			return fmt.Errorf("marshal product failed: %w", err)
		}
		pipe.Set(ctx, cacheKey(product.ID), data, c.ttl())
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	return nil
}

// ttl adds up to 20% jitter so entries of one bulk fetch expire apart.
func (c *CatalogCache) ttl() time.Duration {
	jitter := c.baseTTL / 5
	if jitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + rand.N(jitter)
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:product:%s", id)
}
