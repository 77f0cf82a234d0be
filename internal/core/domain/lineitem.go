package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one (owner, product) row in a cart. At most one row exists per
// pair; repeated adds merge into the same row. PriceSnapshot is the catalog
// price at the moment of first insertion and is never recomputed afterwards.
type LineItem struct {
	ID            string
	OwnerID       string
	ProductID     string
	Quantity      int
	PriceSnapshot decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EnrichedItem is a LineItem joined with live catalog attributes for display.
// The live UnitPrice may differ from PriceSnapshot; totals always use the
// snapshot.
type EnrichedItem struct {
	LineItem
	ProductName  string
	ProductImage string
	UnitPrice    decimal.Decimal
}

// Subtotal is quantity times the frozen snapshot price.
func (e EnrichedItem) Subtotal() decimal.Decimal {
	return e.PriceSnapshot.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is the derived view of all of one owner's line items. It is never
// persisted; it only exists as a query result.
type Cart struct {
	OwnerID string
	Items   []EnrichedItem
	Total   decimal.Decimal
}
