package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/shopping-cart/internal/core/domain"
	"github.com/rl1809/shopping-cart/internal/port"
)

const productKeyPrefix = "product:"

// RedisAdapter caches catalog products as JSON values. TTLs carry a small
// random jitter so a burst of products cached together does not expire
// together.
type RedisAdapter struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, baseTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisAdapter) Get(ctx context.Context, productID string) (*domain.Product, error) {
	data, err := r.client.Get(ctx, productKeyPrefix+productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached product: %w", err)
	}

	return &p, nil
}

func (r *RedisAdapter) Set(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	err = r.client.Set(ctx, productKeyPrefix+product.ID, data, r.ttl()).Err()
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

func (r *RedisAdapter) ttl() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL) / 10))
	return r.baseTTL + jitter
}
