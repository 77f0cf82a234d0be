package port

import (
	"context"
	"errors"

	"github.com/rl1809/shopping-cart/internal/core/domain"
)

// ErrCacheMiss is returned by ProductCache.Get when the product is not cached.
var ErrCacheMiss = errors.New("cache miss")

type ProductCache interface {
	// Get returns the cached product, or ErrCacheMiss.
	Get(ctx context.Context, productID string) (*domain.Product, error)

	// Set caches the product until its TTL expires.
	Set(ctx context.Context, product *domain.Product) error
}
