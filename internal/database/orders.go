package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, account_id, restaurant_id, table_id, table_number, status, total, customer_name, customer_phone, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.AccountID,
		&o.RestaurantID,
		&o.TableID,
		&o.TableNumber,
		&o.Status,
		&o.Total,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	RestaurantID  uuid.UUID
	TableID       uuid.UUID
	TableNumber   int32
	Status        string
	Total         pgtype.Numeric
	CustomerName  pgtype.Text
	CustomerPhone pgtype.Text
	Notes         pgtype.Text
}

const createOrder = `
INSERT INTO orders (id, account_id, restaurant_id, table_id, table_number, status, total, customer_name, customer_phone, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.AccountID,
		arg.RestaurantID,
		arg.TableID,
		arg.TableNumber,
		arg.Status,
		arg.Total,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.Notes,
	))
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Note       pgtype.Text
}

const createOrderItem = `
INSERT INTO order_items (id, order_id, menu_item_id, name, unit_price, quantity, note)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
RETURNING id, order_id, menu_item_id, name, unit_price, quantity, note, created_at`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Name,
		arg.UnitPrice,
		arg.Quantity,
		arg.Note,
	).Scan(
		&it.ID,
		&it.OrderID,
		&it.MenuItemID,
		&it.Name,
		&it.UnitPrice,
		&it.Quantity,
		&it.Note,
		&it.CreatedAt,
	)
	return it, err
}

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND restaurant_id = $2`

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.RestaurantID))
}

const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

type ListOrdersParams struct {
	RestaurantID uuid.UUID
	Status       pgtype.Text
	Limit        int32
	Offset       int32
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE restaurant_id = $1
  AND ($2::text IS NULL OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.RestaurantID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, name, unit_price, quantity, note, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.MenuItemID,
			&it.Name,
			&it.UnitPrice,
			&it.Quantity,
			&it.Note,
			&it.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListStalePendingOrders feeds the auto-cancel sweeper: PENDING orders that
// were created before the cutoff, across all restaurants.
const listStalePendingOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE status = 'PENDING' AND created_at < $1
ORDER BY created_at`

func (q *Queries) ListStalePendingOrders(ctx context.Context, cutoff time.Time) ([]Order, error) {
	rows, err := q.db.Query(ctx, listStalePendingOrders, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
