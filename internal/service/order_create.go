package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/enum"
	"github.com/shopspring/decimal"
)

// OrderOptions controls validation behaviour during order creation.
type OrderOptions struct {
	ValidatePrices          bool
	CheckInventory          bool
	AllowPartialFulfillment bool
}

// DefaultOrderOptions: prices are validated against the live catalog,
// inventory checks and partial fulfillment are off.
func DefaultOrderOptions() OrderOptions {
	return OrderOptions{ValidatePrices: true}
}

// CreateOrderRequest is the validated input for creating an order.
// The owning account is never part of the request; it is inherited from the
// table row inside the transaction.
type CreateOrderRequest struct {
	RestaurantID  uuid.UUID
	TableID       uuid.UUID
	TableNumber   int32
	Items         []CreateOrderItemRequest
	Total         decimal.Decimal // as submitted by the client
	CustomerName  string
	CustomerPhone string
	Notes         string
	Options       OrderOptions
}

// CreateOrderItemRequest is a single ordered line with the client's view of
// the item. Name and price are re-validated against the catalog unless price
// validation is disabled.
type CreateOrderItemRequest struct {
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int32
	Note       string
}

// OrderValidation aggregates per-line validation results.
// TotalValidated is priced from the current catalog; TotalRequested from the
// submitted lines.
type OrderValidation struct {
	IsValid        bool
	TotalRequested decimal.Decimal
	TotalValidated decimal.Decimal
	Errors         []string
	Warnings       []string
}

// CreateOrderResult is the full created order with its lines.
type CreateOrderResult struct {
	OrderID      uuid.UUID
	Order        database.Order
	Items        []database.OrderItem
	TableUpdated bool
	Validation   OrderValidation
}

// OrderService owns the order creation and status transactions.
type OrderService struct {
	runner AtomicRunner
}

func NewOrderService(runner AtomicRunner) *OrderService {
	return &OrderService{runner: runner}
}

// resolvedItem is a line after catalog validation: the price and name that
// will actually be written.
type resolvedItem struct {
	req       CreateOrderItemRequest
	valid     bool
	name      string
	unitPrice decimal.Decimal
}

// CreateOrder creates an order and locks its table in one atomic unit.
// Exactly one order is created and exactly one table locked, or neither.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, newTxError(CodeValidationError, "items are required", false)
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, newTxError(CodeValidationError,
				fmt.Sprintf("items[%d]: quantity must be > 0", i), false)
		}
	}

	var result *CreateOrderResult
	err := s.runner.RunAtomic(ctx, func(store Store) error {
		// The FOR UPDATE read claims the table row for this transaction;
		// concurrent creations against the same table serialize here.
		table, err := store.GetTableForUpdate(ctx, req.TableID)
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

		// Retryable: the lock clears when the current order completes.
		if table.IsLocked {
			txErr := newTxError(CodeTableLocked, "table is locked by another order", true)
			if table.CurrentOrderID.Valid {
				txErr = txErr.withDetail("current_order_id", uuid.UUID(table.CurrentOrderID.Bytes).String())
			}
			return txErr
		}

		validation, resolved, err := s.validateItems(ctx, store, req)
		if err != nil {
			return err
		}

		if !validation.IsValid && !req.Options.AllowPartialFulfillment {
			return &TxError{
				Code:    CodeValidationError,
				Message: "order validation failed",
				Detail: map[string]any{
					"errors":          validation.Errors,
					"warnings":        validation.Warnings,
					"total_requested": validation.TotalRequested.StringFixed(2),
					"total_validated": validation.TotalValidated.StringFixed(2),
				},
			}
		}

		total := req.Total
		if req.Options.ValidatePrices {
			total = validation.TotalValidated
		}

		orderID := uuid.New()
		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			ID:            orderID,
			AccountID:     table.AccountID, // inherited from the table, never from the client
			RestaurantID:  req.RestaurantID,
			TableID:       table.ID,
			TableNumber:   table.Number,
			Status:        enum.OrderStatusPending,
			Total:         decimalToNumeric(total),
			CustomerName:  textOrNull(req.CustomerName),
			CustomerPhone: textOrNull(req.CustomerPhone),
			Notes:         textOrNull(req.Notes),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		var items []database.OrderItem
		for _, ri := range resolved {
			if !ri.valid {
				// Only reachable with AllowPartialFulfillment; invalid lines
				// are reported in the validation record and skipped.
				continue
			}
			item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
				OrderID:    orderID,
				MenuItemID: ri.req.MenuItemID,
				Name:       ri.name,
				UnitPrice:  decimalToNumeric(ri.unitPrice),
				Quantity:   ri.req.Quantity,
				Note:       textOrNull(ri.req.Note),
			})
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			items = append(items, item)
		}

		if _, err := store.LockTable(ctx, database.LockTableParams{
			ID:             table.ID,
			CurrentOrderID: orderID,
		}); err != nil {
			return fmt.Errorf("lock table: %w", err)
		}

		result = &CreateOrderResult{
			OrderID:      orderID,
			Order:        order,
			Items:        items,
			TableUpdated: true,
			Validation:   validation,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validateItems re-validates every line against the live catalog. A price
// divergence keeps the line valid but records a warning and reprices it with
// the current catalog price; missing, foreign or unavailable items make the
// line invalid. With price validation disabled every line passes as-is.
func (s *OrderService) validateItems(ctx context.Context, store Store, req CreateOrderRequest) (OrderValidation, []resolvedItem, error) {
	validation := OrderValidation{
		IsValid:        true,
		TotalRequested: decimal.Zero,
		TotalValidated: decimal.Zero,
	}
	resolved := make([]resolvedItem, 0, len(req.Items))

	for i, item := range req.Items {
		qty := decimal.NewFromInt32(item.Quantity)
		validation.TotalRequested = validation.TotalRequested.Add(item.UnitPrice.Mul(qty))

		if !req.Options.ValidatePrices && !req.Options.CheckInventory {
			validation.TotalValidated = validation.TotalValidated.Add(item.UnitPrice.Mul(qty))
			resolved = append(resolved, resolvedItem{
				req:       item,
				valid:     true,
				name:      item.Name,
				unitPrice: item.UnitPrice,
			})
			continue
		}

		menuItem, err := store.GetMenuItemForOrder(ctx, item.MenuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				validation.IsValid = false
				validation.Errors = append(validation.Errors,
					fmt.Sprintf("items[%d]: %s is no longer available", i, item.Name))
				resolved = append(resolved, resolvedItem{req: item})
				continue
			}
			return OrderValidation{}, nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}

		if menuItem.RestaurantID != req.RestaurantID {
			validation.IsValid = false
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("items[%d]: %s does not belong to this restaurant", i, item.Name))
			resolved = append(resolved, resolvedItem{req: item})
			continue
		}

		if !menuItem.Available {
			validation.IsValid = false
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("items[%d]: %s is no longer available", i, menuItem.Name))
			resolved = append(resolved, resolvedItem{req: item})
			continue
		}

		if req.Options.CheckInventory && menuItem.StockCount.Valid && menuItem.StockCount.Int32 < item.Quantity {
			validation.IsValid = false
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("items[%d]: only %d of %s in stock", i, menuItem.StockCount.Int32, menuItem.Name))
			resolved = append(resolved, resolvedItem{req: item})
			continue
		}

		currentPrice := numericToDecimal(menuItem.Price)
		unitPrice := item.UnitPrice
		if req.Options.ValidatePrices {
			if !currentPrice.Equal(item.UnitPrice) {
				validation.Warnings = append(validation.Warnings,
					fmt.Sprintf("items[%d]: price of %s changed from %s to %s",
						i, menuItem.Name, item.UnitPrice.StringFixed(2), currentPrice.StringFixed(2)))
			}
			// The catalog price is authoritative, never the submitted one.
			unitPrice = currentPrice
		}

		validation.TotalValidated = validation.TotalValidated.Add(unitPrice.Mul(qty))
		resolved = append(resolved, resolvedItem{
			req:       item,
			valid:     true,
			name:      menuItem.Name,
			unitPrice: unitPrice,
		})
	}

	return validation, resolved, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
