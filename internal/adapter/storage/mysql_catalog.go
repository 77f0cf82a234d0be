package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/shopping-cart/internal/core/domain"
)

// MySQLCatalog reads product attributes from the shared catalog tables. The
// cart service never writes through this adapter.
type MySQLCatalog struct {
	db *sql.DB
}

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{db: db}
}

func (c *MySQLCatalog) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, price, image
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Image)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	return &p, nil
}
