package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
)

// ProductCache serves catalog reads from Redis. Misses and Redis failures
// fall through to the repository; the cache is never authoritative.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProductCache builds a cache over an existing Redis client.
func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	return &ProductCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached product, or nil on a miss.
func (c *ProductCache) Get(ctx context.Context, id int64) *domain.Product {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, productKey(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		return nil
	}
	var product domain.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return nil
	}
	return &product
}

// Set stores the product for the configured TTL.
func (c *ProductCache) Set(ctx context.Context, product *domain.Product) {
	if c == nil || c.client == nil || product == nil {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(product.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", zap.Int64("product_id", product.ID), zap.Error(err))
	}
}

// Invalidate drops the cached entry after a catalog or stock mutation.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if c == nil || c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("order-service:product:%d", id)
}
