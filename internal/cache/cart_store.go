package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// CartStore keeps cart quantities in a Redis hash per user.
// Key: cart:{userId}, field: product id, value: quantity.
type CartStore struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCartStore creates a new CartStore. Every write refreshes the TTL.
func NewCartStore(redis *RedisClient, ttl time.Duration) *CartStore {
	return &CartStore{redis: redis, ttl: ttl}
}

func cartKey(userID int) string {
	return fmt.Sprintf("cart:%d", userID)
}

// Items returns product id to quantity.
func (s *CartStore) Items(ctx context.Context, userID int) (map[int]int, error) {
	raw, err := s.redis.HGetAllInt(ctx, cartKey(userID))
	if err != nil {
		return nil, err
	}
	items := make(map[int]int, len(raw))
	for field, qty := range raw {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		items[id] = qty
	}
	return items, nil
}

// Quantity returns the quantity of one product, 0 when absent.
func (s *CartStore) Quantity(ctx context.Context, userID, productID int) (int, error) {
	n, _, err := s.redis.HGetInt(ctx, cartKey(userID), strconv.Itoa(productID))
	return n, err
}

// SetQuantity stores the quantity of one product.
func (s *CartStore) SetQuantity(ctx context.Context, userID, productID, qty int) error {
	return s.redis.HSetInt(ctx, cartKey(userID), strconv.Itoa(productID), qty, s.ttl)
}

// Remove drops one product.
func (s *CartStore) Remove(ctx context.Context, userID, productID int) error {
	return s.redis.HDel(ctx, cartKey(userID), strconv.Itoa(productID))
}

// Clear drops the whole cart.
func (s *CartStore) Clear(ctx context.Context, userID int) error {
	return s.redis.Delete(ctx, cartKey(userID))
}
