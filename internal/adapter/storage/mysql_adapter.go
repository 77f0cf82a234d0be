package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/shopping-cart/internal/core/domain"
	"github.com/rl1809/shopping-cart/internal/port"
)

// MySQL error 1062: duplicate entry for a unique key.
const mysqlErrDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const lineItemColumns = `id, owner_id, product_id, quantity, price_snapshot, created_at, updated_at`

func (m *MySQLAdapter) FindByOwnerAndProduct(ctx context.Context, ownerID, productID string) (*domain.LineItem, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM cart_items WHERE owner_id = ? AND product_id = ?`,
		ownerID, productID,
	)
	return scanLineItem(row)
}

func (m *MySQLAdapter) FindByID(ctx context.Context, ownerID, itemID string) (*domain.LineItem, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM cart_items WHERE id = ? AND owner_id = ?`,
		itemID, ownerID,
	)
	return scanLineItem(row)
}

func (m *MySQLAdapter) FindAllByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM cart_items WHERE owner_id = ?
		ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		err := rows.Scan(
			&item.ID, &item.OwnerID, &item.ProductID, &item.Quantity,
			&item.PriceSnapshot, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

func (m *MySQLAdapter) Insert(ctx context.Context, item domain.LineItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_items (`+lineItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, item.ProductID, item.Quantity,
		item.PriceSnapshot, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return port.ErrDuplicateItem
		}
		return fmt.Errorf("insert cart item: %w", err)
	}

	return nil
}

// AddQuantity increments the owner's row for a product in place. The UPDATE
// is the atomic read-modify-write; two concurrent increments both land.
func (m *MySQLAdapter) AddQuantity(ctx context.Context, ownerID, productID string, delta int) (*domain.LineItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = quantity + ?, updated_at = NOW(3)
		WHERE owner_id = ? AND product_id = ?`,
		delta, ownerID, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment quantity: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM cart_items WHERE owner_id = ? AND product_id = ?`,
		ownerID, productID,
	)
	item, err := scanLineItem(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return item, nil
}

func (m *MySQLAdapter) UpdateQuantity(ctx context.Context, ownerID, itemID string, quantity int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = ?, updated_at = NOW(3)
		WHERE id = ? AND owner_id = ?`,
		quantity, itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}

	return nil
}

func (m *MySQLAdapter) DeleteByID(ctx context.Context, ownerID, itemID string) error {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = ? AND owner_id = ?`,
		itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}

	return nil
}

func (m *MySQLAdapter) DeleteAllByOwner(ctx context.Context, ownerID string) error {
	_, err := m.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE owner_id = ?`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLineItem(row rowScanner) (*domain.LineItem, error) {
	var item domain.LineItem
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.ProductID, &item.Quantity,
		&item.PriceSnapshot, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart item: %w", err)
	}

	return &item, nil
}
