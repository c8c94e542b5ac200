package database

import (
	"context"

	"github.com/google/uuid"
)

const menuItemColumns = `id, restaurant_id, name, price, available, stock_count, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID,
		&m.RestaurantID,
		&m.Name,
		&m.Price,
		&m.Available,
		&m.StockCount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

// GetMenuItemForOrder is the catalog lookup used inside order validation:
// current price, availability and owning restaurant.
const getMenuItemForOrder = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItemForOrder, id))
}

const listAvailableMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE restaurant_id = $1 AND available = TRUE
ORDER BY name`

func (q *Queries) ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
