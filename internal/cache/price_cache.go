package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robinhoot/robinhoot_api/internal/pricing"
)

// ErrCacheMiss is returned when no cached quote exists.
var ErrCacheMiss = errors.New("cache miss")

// PriceCache caches computed quotes per product and quantity under the
// product's current generation. Invalidation bumps the generation, so a
// quote computed from data read before the bump is written under a key that
// is never read again.
// Keys: price:gen:{productId}, price:quote:{productId}:{generation}:{quantity}
type PriceCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewPriceCache creates a new PriceCache.
func NewPriceCache(redis *RedisClient, ttl time.Duration) *PriceCache {
	return &PriceCache{redis: redis, ttl: ttl}
}

func generationKey(productID int) string {
	return fmt.Sprintf("price:gen:%d", productID)
}

func quoteKey(productID int, generation int64, quantity int) string {
	return fmt.Sprintf("price:quote:%d:%d:%d", productID, generation, quantity)
}

// Generation returns the product's current cache generation. A product that
// was never invalidated is at generation 0.
func (c *PriceCache) Generation(ctx context.Context, productID int) (int64, error) {
	gen, _, err := c.redis.GetInt64(ctx, generationKey(productID))
	return gen, err
}

// Get returns a cached quote of the given generation or ErrCacheMiss.
func (c *PriceCache) Get(ctx context.Context, productID int, generation int64, quantity int) (*pricing.Quote, error) {
	raw, err := c.redis.Get(ctx, quoteKey(productID, generation, quantity))
	if errors.Is(err, Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var q pricing.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &q, nil
}

// Set stores a quote under generation.
func (c *PriceCache) Set(ctx context.Context, productID int, generation int64, q *pricing.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	return c.redis.Set(ctx, quoteKey(productID, generation, q.Quantity), string(data), c.ttl)
}

// InvalidateProduct moves the product to a new generation and drops the
// quotes it can find. Quotes of older generations written later expire
// with the TTL.
func (c *PriceCache) InvalidateProduct(ctx context.Context, productID int) error {
	if _, err := c.redis.Incr(ctx, generationKey(productID)); err != nil {
		return err
	}
	_, err := c.redis.DeleteByPattern(ctx, fmt.Sprintf("price:quote:%d:*", productID))
	return err
}
