package port

import (
	"context"
	"errors"

	"github.com/rl1809/shopping-cart/internal/core/domain"
)

var (
	// ErrNotFound is returned by owner-scoped lookups and deletes that match
	// no row.
	ErrNotFound = errors.New("line item not found")

	// ErrDuplicateItem is returned by Insert when a row for the same
	// (owner, product) pair already exists. The service recovers from it by
	// retrying the add as a quantity merge.
	ErrDuplicateItem = errors.New("duplicate line item")
)

type CartRepository interface {
	// FindByOwnerAndProduct returns the owner's row for a product, or nil
	// when no such row exists.
	FindByOwnerAndProduct(ctx context.Context, ownerID, productID string) (*domain.LineItem, error)

	// FindByID returns the row with the given id, scoped to the owner; nil
	// when absent or owned by someone else.
	FindByID(ctx context.Context, ownerID, itemID string) (*domain.LineItem, error)

	// FindAllByOwner returns all of the owner's rows in insertion order.
	FindAllByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error)

	// Insert persists a new row; ErrDuplicateItem on a (owner, product)
	// uniqueness conflict.
	Insert(ctx context.Context, item domain.LineItem) error

	// AddQuantity atomically increments the quantity of the owner's row for
	// a product and returns the updated row, or nil when no row exists.
	AddQuantity(ctx context.Context, ownerID, productID string, delta int) (*domain.LineItem, error)

	// UpdateQuantity sets the quantity of the owner's row by id.
	UpdateQuantity(ctx context.Context, ownerID, itemID string, quantity int) error

	// DeleteByID removes the owner's row by id; ErrNotFound when no row
	// was deleted.
	DeleteByID(ctx context.Context, ownerID, itemID string) error

	// DeleteAllByOwner removes every row of the owner; a no-op when the
	// cart is already empty.
	DeleteAllByOwner(ctx context.Context, ownerID string) error
}
