package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rl1809/shopping-cart/internal/core/domain"
	"github.com/rl1809/shopping-cart/internal/port"
)

// CachedCatalog puts a product cache in front of the catalog source. Cache
// faults are logged and absorbed; the source of truth always answers. A
// singleflight group collapses concurrent misses for the same product into
// one source query.
type CachedCatalog struct {
	source port.CatalogRepository
	cache  port.ProductCache
	logger *slog.Logger
	sfg    singleflight.Group
}

func NewCachedCatalog(source port.CatalogRepository, cache port.ProductCache, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	v, err, _ := c.sfg.Do(productID, func() (interface{}, error) {
		product, err := c.cache.Get(ctx, productID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			c.logger.Warn("product cache get failed", "product_id", productID, "error", err)
		}

		product, err = c.source.GetProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("catalog source: %w", err)
		}

		if product != nil {
			go func() {
				setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := c.cache.Set(setCtx, product); err != nil {
					c.logger.Warn("product cache set failed", "product_id", productID, "error", err)
				}
			}()
		}

		return product, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}
