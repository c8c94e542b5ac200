package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/enum"
)

// TableReader covers the plain (non-transactional) reads the table service
// needs. Satisfied by *database.Queries on the pool.
type TableReader interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
}

// TableService owns the narrow table operations used by waiter-call and
// administrative flows: lock, unlock, availability and manual status changes.
type TableService struct {
	runner AtomicRunner
	reader TableReader
}

func NewTableService(runner AtomicRunner, reader TableReader) *TableService {
	return &TableService{runner: runner, reader: reader}
}

// Lock claims the table for the given order. Idempotent when re-invoked with
// the same order id; locked by anyone else is a retryable conflict.
func (s *TableService) Lock(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error) {
	var result *database.Table
	err := s.runner.RunAtomic(ctx, func(store Store) error {
		table, err := store.GetTableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newTxError(CodeInvalidTable, "table not found", false).
					withDetail("table_id", tableID.String())
			}
			return fmt.Errorf("get table: %w", err)
		}

		if table.IsLocked {
			if table.CurrentOrderID.Valid && uuid.UUID(table.CurrentOrderID.Bytes) == orderID {
				result = &table
				return nil
			}
			return newTxError(CodeTableLocked, "table is locked by another order", true)
		}

		locked, err := store.LockTable(ctx, database.LockTableParams{
			ID:             tableID,
			CurrentOrderID: orderID,
		})
		if err != nil {
			return fmt.Errorf("lock table: %w", err)
		}
		result = &locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unlock releases the table, but only for the order that owns the lock.
// Releasing an already-unlocked table succeeds; releasing someone else's
// lock is an ownership violation.
func (s *TableService) Unlock(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error) {
	var result *database.Table
	err := s.runner.RunAtomic(ctx, func(store Store) error {
		table, err := store.GetTableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newTxError(CodeInvalidTable, "table not found", false).
					withDetail("table_id", tableID.String())
			}
			return fmt.Errorf("get table: %w", err)
		}

		if !table.IsLocked {
			result = &table
			return nil
		}

		if table.CurrentOrderID.Valid && uuid.UUID(table.CurrentOrderID.Bytes) != orderID {
			return newTxError(CodeValidationError, "table is locked by a different order", false).
				withDetail("current_order_id", uuid.UUID(table.CurrentOrderID.Bytes).String())
		}

		unlocked, err := store.UnlockTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("unlock table: %w", err)
		}
		result = &unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AvailabilityResult is a point-in-time snapshot for pre-flight UI checks.
type AvailabilityResult struct {
	Available bool
	Table     database.Table
}

// CheckAvailability is a plain read, not a transaction. It is advisory only:
// the real gate is the locked check inside the creation transaction, so a
// check-then-act race cannot slip an order onto a busy table.
func (s *TableService) CheckAvailability(ctx context.Context, tableID uuid.UUID) (*AvailabilityResult, error) {
	table, err := s.reader.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newTxError(CodeInvalidTable, "table not found", false).
				withDetail("table_id", tableID.String())
		}
		return nil, classifyStoreError("get table", err)
	}
	return &AvailabilityResult{
		Available: !table.IsLocked && table.Status == enum.TableStatusAvailable,
		Table:     table,
	}, nil
}

// UpdateStatus changes the table status through the state machine. Locked
// tables cannot be made AVAILABLE manually; the lock is released only by its
// owning order.
func (s *TableService) UpdateStatus(ctx context.Context, tableID uuid.UUID, newStatus string) (*database.Table, error) {
	if !enum.IsValidTableStatus(newStatus) {
		return nil, newTxError(CodeValidationError, "invalid table status", false).
			withDetail("status", newStatus)
	}

	var result *database.Table
	err := s.runner.RunAtomic(ctx, func(store Store) error {
		table, err := store.GetTableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newTxError(CodeInvalidTable, "table not found", false).
					withDetail("table_id", tableID.String())
			}
			return fmt.Errorf("get table: %w", err)
		}

		if tr := ValidateTransition(table.Status, newStatus); !tr.IsValid {
			return newTxError(CodeInvalidStateTransition, tr.Reason, false)
		}

		if table.IsLocked && newStatus == enum.TableStatusAvailable {
			return newTxError(CodeTableLocked, "table is locked by an open order", true)
		}

		updated, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     tableID,
			Status: newStatus,
		})
		if err != nil {
			return fmt.Errorf("update table status: %w", err)
		}
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
