package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const waiterCallColumns = `id, account_id, restaurant_id, table_id, table_number, type, status, created_at, resolved_at`

func scanWaiterCall(row interface{ Scan(dest ...any) error }) (WaiterCall, error) {
	var c WaiterCall
	err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.RestaurantID,
		&c.TableID,
		&c.TableNumber,
		&c.Type,
		&c.Status,
		&c.CreatedAt,
		&c.ResolvedAt,
	)
	return c, err
}

type CreateWaiterCallParams struct {
	AccountID    uuid.UUID
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	TableNumber  int32
	Type         string
}

const createWaiterCall = `
INSERT INTO waiter_calls (id, account_id, restaurant_id, table_id, table_number, type, status)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, 'PENDING')
RETURNING ` + waiterCallColumns

func (q *Queries) CreateWaiterCall(ctx context.Context, arg CreateWaiterCallParams) (WaiterCall, error) {
	return scanWaiterCall(q.db.QueryRow(ctx, createWaiterCall,
		arg.AccountID,
		arg.RestaurantID,
		arg.TableID,
		arg.TableNumber,
		arg.Type,
	))
}

type ResolveWaiterCallParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

// ResolveWaiterCall only touches calls that are still PENDING, so a double
// resolve surfaces as no rows.
const resolveWaiterCall = `
UPDATE waiter_calls
SET status = 'RESOLVED', resolved_at = NOW()
WHERE id = $1 AND restaurant_id = $2 AND status = 'PENDING'
RETURNING ` + waiterCallColumns

func (q *Queries) ResolveWaiterCall(ctx context.Context, arg ResolveWaiterCallParams) (WaiterCall, error) {
	return scanWaiterCall(q.db.QueryRow(ctx, resolveWaiterCall, arg.ID, arg.RestaurantID))
}

type ListWaiterCallsParams struct {
	RestaurantID uuid.UUID
	Status       pgtype.Text
}

const listWaiterCalls = `
SELECT ` + waiterCallColumns + `
FROM waiter_calls
WHERE restaurant_id = $1
  AND ($2::text IS NULL OR status = $2)
ORDER BY created_at DESC`

func (q *Queries) ListWaiterCalls(ctx context.Context, arg ListWaiterCallsParams) ([]WaiterCall, error) {
	rows, err := q.db.Query(ctx, listWaiterCalls, arg.RestaurantID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []WaiterCall
	for rows.Next() {
		c, err := scanWaiterCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
