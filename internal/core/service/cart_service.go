package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/shopping-cart/internal/core/domain"
	"github.com/rl1809/shopping-cart/internal/port"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidProduct  = errors.New("product id must not be empty")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("line item not found")
)

// addRetryLimit bounds the merge retry loop in Add. The (owner, product)
// uniqueness constraint in the store turns a concurrent duplicate insert into
// ErrDuplicateItem, which is recovered here by retrying as a quantity merge.
const addRetryLimit = 3

type CartService struct {
	store   port.CartRepository
	catalog port.CatalogRepository
}

func NewCartService(store port.CartRepository, catalog port.CatalogRepository) *CartService {
	return &CartService{
		store:   store,
		catalog: catalog,
	}
}

// Fetch returns the owner's cart in insertion order, each line item joined
// with live catalog attributes for display. An owner without items gets an
// empty cart, not an error. The total is computed from price snapshots, never
// from live prices.
func (s *CartService) Fetch(ctx context.Context, ownerID string) (domain.Cart, error) {
	items, err := s.store.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}

	cart := domain.Cart{
		OwnerID: ownerID,
		Items:   make([]domain.EnrichedItem, 0, len(items)),
		Total:   decimal.Zero,
	}

	for _, item := range items {
		enriched, err := s.enrich(ctx, item)
		if err != nil {
			return domain.Cart{}, err
		}
		cart.Items = append(cart.Items, enriched)
		cart.Total = cart.Total.Add(enriched.Subtotal())
	}

	return cart, nil
}

// Add puts quantity units of a product into the owner's cart. A first add
// creates the row and freezes the catalog price as the snapshot; any later add
// of the same product merges into the existing row and leaves the snapshot
// untouched. Concurrent adds of the same product never produce two rows and
// never surface the conflict to the caller.
func (s *CartService) Add(ctx context.Context, ownerID, productID string, quantity int) (domain.EnrichedItem, error) {
	if quantity < 1 {
		return domain.EnrichedItem{}, ErrInvalidQuantity
	}
	if productID == "" {
		return domain.EnrichedItem{}, ErrInvalidProduct
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("catalog lookup: %w", err)
	}
	if product == nil {
		return domain.EnrichedItem{}, ErrProductNotFound
	}

	for attempt := 0; attempt < addRetryLimit; attempt++ {
		existing, err := s.store.FindByOwnerAndProduct(ctx, ownerID, productID)
		if err != nil {
			return domain.EnrichedItem{}, fmt.Errorf("find line item: %w", err)
		}

		if existing != nil {
			merged, err := s.store.AddQuantity(ctx, ownerID, productID, quantity)
			if err != nil {
				return domain.EnrichedItem{}, fmt.Errorf("merge quantity: %w", err)
			}
			if merged == nil {
				// Row was deleted between the read and the increment;
				// retry as a fresh insert.
				continue
			}
			return enriched(*merged, product), nil
		}

		now := time.Now()
		item := domain.LineItem{
			ID:            uuid.NewString(),
			OwnerID:       ownerID,
			ProductID:     productID,
			Quantity:      quantity,
			PriceSnapshot: product.Price,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = s.store.Insert(ctx, item)
		if errors.Is(err, port.ErrDuplicateItem) {
			// Lost the race against a concurrent first add; retry as a merge.
			continue
		}
		if err != nil {
			return domain.EnrichedItem{}, fmt.Errorf("insert line item: %w", err)
		}
		return enriched(item, product), nil
	}

	return domain.EnrichedItem{}, fmt.Errorf("add line item: contention on owner %s product %s", ownerID, productID)
}

// UpdateQuantity sets the quantity of the owner's line item. A quantity of
// zero or less deletes the row and returns (nil, nil) as the removal
// confirmation; this is the documented removal path, not an error. An item id
// belonging to a different owner is indistinguishable from a missing one.
func (s *CartService) UpdateQuantity(ctx context.Context, ownerID, itemID string, quantity int) (*domain.EnrichedItem, error) {
	item, err := s.store.FindByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, fmt.Errorf("find line item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	if quantity <= 0 {
		err := s.store.DeleteByID(ctx, ownerID, itemID)
		if err != nil && !errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("delete line item: %w", err)
		}
		return nil, nil
	}

	if err := s.store.UpdateQuantity(ctx, ownerID, itemID, quantity); err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}

	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	e, err := s.enrich(ctx, *item)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Remove deletes the owner's line item by id. Removing an item that is
// already gone is ErrItemNotFound.
func (s *CartService) Remove(ctx context.Context, ownerID, itemID string) error {
	err := s.store.DeleteByID(ctx, ownerID, itemID)
	if errors.Is(err, port.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	return nil
}

// Clear deletes every line item of the owner. Clearing an empty cart is a
// no-op success.
func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if err := s.store.DeleteAllByOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) enrich(ctx context.Context, item domain.LineItem) (domain.EnrichedItem, error) {
	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("catalog lookup: %w", err)
	}
	return enriched(item, product), nil
}

// enriched joins a line item with catalog display attributes. A product that
// has vanished from the catalog leaves the display fields empty; the item
// itself stays in the cart with its snapshot price.
func enriched(item domain.LineItem, product *domain.Product) domain.EnrichedItem {
	e := domain.EnrichedItem{LineItem: item}
	if product != nil {
		e.ProductName = product.Name
		e.ProductImage = product.Image
		e.UnitPrice = product.Price
	}
	return e
}
