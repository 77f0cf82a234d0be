package domain

import "github.com/shopspring/decimal"

// Product is a read-only catalog entry. Price is the live catalog price; cart
// rows keep their own snapshot taken at first add.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}
