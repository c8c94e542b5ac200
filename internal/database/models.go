package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Table is a physical seating unit. IsLocked plus CurrentOrderID act as a
// mutex flag: a locked table belongs to exactly one open order.
type Table struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	RestaurantID   uuid.UUID
	Number         int32
	Seats          int32
	Status         string
	IsLocked       bool
	CurrentOrderID pgtype.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Price        pgtype.Numeric
	Available    bool
	StockCount   pgtype.Int4
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
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
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem carries name and unit-price snapshots taken at validation time,
// so later menu edits never change what was billed.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Note       pgtype.Text
	CreatedAt  time.Time
}

type WaiterCall struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	TableNumber  int32
	Type         string
	Status       string
	CreatedAt    time.Time
	ResolvedAt   pgtype.Timestamptz
}
