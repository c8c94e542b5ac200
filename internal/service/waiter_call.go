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

// CreateWaiterCallRequest is a service request from a table: call a waiter,
// ask for the bill, or anything else.
type CreateWaiterCallRequest struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	Type         string
}

// WaiterCallService creates waiter calls. No lock interaction: a call never
// claims or releases a table.
type WaiterCallService struct {
	runner AtomicRunner
}

func NewWaiterCallService(runner AtomicRunner) *WaiterCallService {
	return &WaiterCallService{runner: runner}
}

// Create validates the table belongs to the restaurant and writes the call,
// inheriting the table's owning account.
func (s *WaiterCallService) Create(ctx context.Context, req CreateWaiterCallRequest) (*database.WaiterCall, error) {
	if !enum.IsValidWaiterCallType(req.Type) {
		return nil, newTxError(CodeValidationError, "invalid waiter call type", false).
			withDetail("type", req.Type)
	}

	var result *database.WaiterCall
	err := s.runner.RunAtomic(ctx, func(store Store) error {
		table, err := store.GetTable(ctx, req.TableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newTxError(CodeInvalidTable, "table not found", false).
					withDetail("table_id", req.TableID.String())
			}
			return fmt.Errorf("get table: %w", err)
		}

		if table.RestaurantID != req.RestaurantID {
			return newTxError(CodeInvalidRestaurant, "table does not belong to this restaurant", false).
				withDetail("table_id", req.TableID.String())
		}

		call, err := store.CreateWaiterCall(ctx, database.CreateWaiterCallParams{
			AccountID:    table.AccountID,
			RestaurantID: table.RestaurantID,
			TableID:      table.ID,
			TableNumber:  table.Number,
			Type:         req.Type,
		})
		if err != nil {
			return fmt.Errorf("create waiter call: %w", err)
		}
		result = &call
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
