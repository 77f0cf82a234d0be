package port

import (
	"context"

	"github.com/rl1809/shopping-cart/internal/core/domain"
)

type CatalogRepository interface {
	// GetProduct retrieves a catalog product by ID, or nil when the product
	// does not exist. The catalog is read-only from this service.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}
