package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/enum"
)

// UpdateStatusRequest moves an order to a new status. TableID is optional and
// falls back to the order's own table.
type UpdateStatusRequest struct {
	OrderID   uuid.UUID
	NewStatus string
	TableID   uuid.UUID
}

// UpdateStatusResult reports the updated order and whether its table was
// released as part of the same transaction.
type UpdateStatusResult struct {
	Order         database.Order
	TableReleased bool
	Table         *database.Table
}

// UpdateStatus atomically updates the order status and, when the new status
// is terminal (PAID, CANCELLED, AUTO_CANCELLED), unlocks the table — but only
// if this order still owns the lock. A stale or duplicate status update must
// never unlock a table that has already moved on to a newer order.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*UpdateStatusResult, error) {
	if !enum.IsValidOrderStatus(req.NewStatus) {
		return nil, newTxError(CodeValidationError, "invalid order status", false).
			withDetail("status", req.NewStatus)
	}

	var result *UpdateStatusResult
	err := s.runner.RunAtomic(ctx, func(store Store) error {
		order, err := store.GetOrderForUpdate(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newTxError(CodeValidationError, "order not found", false).
					withDetail("order_id", req.OrderID.String())
			}
			return fmt.Errorf("get order: %w", err)
		}

		updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     order.ID,
			Status: req.NewStatus,
		})
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		result = &UpdateStatusResult{Order: updated}

		if !enum.IsUnlockingStatus(req.NewStatus) {
			return nil
		}

		tableID := req.TableID
		if tableID == uuid.Nil {
			tableID = order.TableID
		}
		if tableID == uuid.Nil {
			return nil
		}

		table, err := store.GetTableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Table gone; the order update still commits.
				return nil
			}
			return fmt.Errorf("get table: %w", err)
		}

		// Release only if this order owns the lock.
		if !table.CurrentOrderID.Valid || uuid.UUID(table.CurrentOrderID.Bytes) != order.ID {
			return nil
		}

		unlocked, err := store.UnlockTable(ctx, table.ID)
		if err != nil {
			return fmt.Errorf("unlock table: %w", err)
		}
		result.TableReleased = true
		result.Table = &unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchItemResult is the outcome for a single order in a batch update.
type BatchItemResult struct {
	OrderID uuid.UUID
	Err     error
}

// BatchStatusResult aggregates per-order outcomes. Partial failure is
// expected and reported, never fatal for the batch.
type BatchStatusResult struct {
	Results   []BatchItemResult
	Succeeded int
	Failed    int
}

// BatchUpdateStatus applies UpdateStatus to each order sequentially. Each
// order gets its own transaction: the store's atomic unit has a document
// ceiling and every order may touch a different table.
func (s *OrderService) BatchUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, newStatus string) (*BatchStatusResult, error) {
	if !enum.IsValidOrderStatus(newStatus) {
		return nil, newTxError(CodeValidationError, "invalid order status", false).
			withDetail("status", newStatus)
	}

	result := &BatchStatusResult{}
	for _, id := range orderIDs {
		_, err := s.UpdateStatus(ctx, UpdateStatusRequest{OrderID: id, NewStatus: newStatus})
		result.Results = append(result.Results, BatchItemResult{OrderID: id, Err: err})
		if err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	return result, nil
}

// StaleOrderLister lists PENDING orders older than the cutoff.
// Satisfied by *database.Queries.
type StaleOrderLister interface {
	ListStalePendingOrders(ctx context.Context, cutoff time.Time) ([]database.Order, error)
}

// Sweeper auto-cancels orders that sat in PENDING past the timeout. It runs
// on the caller's schedule; the core starts no goroutines of its own.
type Sweeper struct {
	lister StaleOrderLister
	orders *OrderService
	maxAge time.Duration
}

func NewSweeper(lister StaleOrderLister, orders *OrderService, maxAge time.Duration) *Sweeper {
	return &Sweeper{lister: lister, orders: orders, maxAge: maxAge}
}

// Sweep cancels every stale pending order via the batch updater, releasing
// their tables in the process.
func (s *Sweeper) Sweep(ctx context.Context) (*BatchStatusResult, error) {
	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.lister.ListStalePendingOrders(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale pending orders: %w", err)
	}
	if len(stale) == 0 {
		return &BatchStatusResult{}, nil
	}

	ids := make([]uuid.UUID, len(stale))
	for i, o := range stale {
		ids[i] = o.ID
	}
	return s.orders.BatchUpdateStatus(ctx, ids, enum.OrderStatusAutoCancelled)
}
