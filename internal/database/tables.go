package database

import (
	"context"

	"github.com/google/uuid"
)

const tableColumns = `id, account_id, restaurant_id, number, seats, status, is_locked, current_order_id, created_at, updated_at`

func scanTable(row interface{ Scan(dest ...any) error }) (Table, error) {
	var t Table
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.RestaurantID,
		&t.Number,
		&t.Seats,
		&t.Status,
		&t.IsLocked,
		&t.CurrentOrderID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const getTable = `SELECT ` + tableColumns + ` FROM tables WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, id))
}

// GetTableForUpdate claims the row for the rest of the transaction. A second
// transaction reading the same table blocks here until the first commits,
// which is what turns the is_locked check into a real mutual-exclusion gate.
const getTableForUpdate = `SELECT ` + tableColumns + ` FROM tables WHERE id = $1 FOR UPDATE`

func (q *Queries) GetTableForUpdate(ctx context.Context, id uuid.UUID) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTableForUpdate, id))
}

const listTables = `
SELECT ` + tableColumns + `
FROM tables
WHERE restaurant_id = $1
ORDER BY number`

func (q *Queries) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type LockTableParams struct {
	ID             uuid.UUID
	CurrentOrderID uuid.UUID
}

const lockTable = `
UPDATE tables
SET is_locked = TRUE, current_order_id = $2, status = 'OCCUPIED', updated_at = NOW()
WHERE id = $1
RETURNING ` + tableColumns

func (q *Queries) LockTable(ctx context.Context, arg LockTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, lockTable, arg.ID, arg.CurrentOrderID))
}

const unlockTable = `
UPDATE tables
SET is_locked = FALSE, current_order_id = NULL, status = 'AVAILABLE', updated_at = NOW()
WHERE id = $1
RETURNING ` + tableColumns

func (q *Queries) UnlockTable(ctx context.Context, id uuid.UUID) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, unlockTable, id))
}

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

const updateTableStatus = `
UPDATE tables
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + tableColumns

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status))
}
