package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/service"
	"github.com/meja-order/api/internal/ws"
)

var errNotStubbed = errors.New("not stubbed")

// Hand-rolled mocks with overridable func fields; each method returns a
// sentinel error unless the test stubs it.

type mockOrderServicer struct {
	CreateOrderFunc       func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatusFunc      func(ctx context.Context, req service.UpdateStatusRequest) (*service.UpdateStatusResult, error)
	BatchUpdateStatusFunc func(ctx context.Context, orderIDs []uuid.UUID, newStatus string) (*service.BatchStatusResult, error)
}

func (m *mockOrderServicer) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	if m.CreateOrderFunc == nil {
		return nil, errNotStubbed
	}
	return m.CreateOrderFunc(ctx, req)
}

func (m *mockOrderServicer) UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (*service.UpdateStatusResult, error) {
	if m.UpdateStatusFunc == nil {
		return nil, errNotStubbed
	}
	return m.UpdateStatusFunc(ctx, req)
}

func (m *mockOrderServicer) BatchUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, newStatus string) (*service.BatchStatusResult, error) {
	if m.BatchUpdateStatusFunc == nil {
		return nil, errNotStubbed
	}
	return m.BatchUpdateStatusFunc(ctx, orderIDs, newStatus)
}

type mockOrderStore struct {
	GetOrderFunc              func(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrdersFunc            func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrderFunc func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	if m.GetOrderFunc == nil {
		return database.Order{}, errNotStubbed
	}
	return m.GetOrderFunc(ctx, arg)
}

func (m *mockOrderStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if m.ListOrdersFunc == nil {
		return nil, errNotStubbed
	}
	return m.ListOrdersFunc(ctx, arg)
}

func (m *mockOrderStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.ListOrderItemsByOrderFunc == nil {
		return nil, errNotStubbed
	}
	return m.ListOrderItemsByOrderFunc(ctx, orderID)
}

type mockTableServicer struct {
	LockFunc              func(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error)
	UnlockFunc            func(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error)
	CheckAvailabilityFunc func(ctx context.Context, tableID uuid.UUID) (*service.AvailabilityResult, error)
	UpdateStatusFunc      func(ctx context.Context, tableID uuid.UUID, newStatus string) (*database.Table, error)
}

func (m *mockTableServicer) Lock(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error) {
	if m.LockFunc == nil {
		return nil, errNotStubbed
	}
	return m.LockFunc(ctx, tableID, orderID)
}

func (m *mockTableServicer) Unlock(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error) {
	if m.UnlockFunc == nil {
		return nil, errNotStubbed
	}
	return m.UnlockFunc(ctx, tableID, orderID)
}

func (m *mockTableServicer) CheckAvailability(ctx context.Context, tableID uuid.UUID) (*service.AvailabilityResult, error) {
	if m.CheckAvailabilityFunc == nil {
		return nil, errNotStubbed
	}
	return m.CheckAvailabilityFunc(ctx, tableID)
}

func (m *mockTableServicer) UpdateStatus(ctx context.Context, tableID uuid.UUID, newStatus string) (*database.Table, error) {
	if m.UpdateStatusFunc == nil {
		return nil, errNotStubbed
	}
	return m.UpdateStatusFunc(ctx, tableID, newStatus)
}

type mockTableStore struct {
	ListTablesFunc func(ctx context.Context, restaurantID uuid.UUID) ([]database.Table, error)
}

func (m *mockTableStore) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]database.Table, error) {
	if m.ListTablesFunc == nil {
		return nil, errNotStubbed
	}
	return m.ListTablesFunc(ctx, restaurantID)
}

type mockWaiterCallServicer struct {
	CreateFunc func(ctx context.Context, req service.CreateWaiterCallRequest) (*database.WaiterCall, error)
}

func (m *mockWaiterCallServicer) Create(ctx context.Context, req service.CreateWaiterCallRequest) (*database.WaiterCall, error) {
	if m.CreateFunc == nil {
		return nil, errNotStubbed
	}
	return m.CreateFunc(ctx, req)
}

type mockWaiterCallStore struct {
	ResolveWaiterCallFunc func(ctx context.Context, arg database.ResolveWaiterCallParams) (database.WaiterCall, error)
	ListWaiterCallsFunc   func(ctx context.Context, arg database.ListWaiterCallsParams) ([]database.WaiterCall, error)
}

func (m *mockWaiterCallStore) ResolveWaiterCall(ctx context.Context, arg database.ResolveWaiterCallParams) (database.WaiterCall, error) {
	if m.ResolveWaiterCallFunc == nil {
		return database.WaiterCall{}, errNotStubbed
	}
	return m.ResolveWaiterCallFunc(ctx, arg)
}

func (m *mockWaiterCallStore) ListWaiterCalls(ctx context.Context, arg database.ListWaiterCallsParams) ([]database.WaiterCall, error) {
	if m.ListWaiterCallsFunc == nil {
		return nil, errNotStubbed
	}
	return m.ListWaiterCallsFunc(ctx, arg)
}

type mockMenuStore struct {
	ListAvailableMenuItemsFunc func(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
}

func (m *mockMenuStore) ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error) {
	if m.ListAvailableMenuItemsFunc == nil {
		return nil, errNotStubbed
	}
	return m.ListAvailableMenuItemsFunc(ctx, restaurantID)
}

// mockBroadcaster records every event pushed by the handlers.
type mockBroadcaster struct {
	events []ws.Event
	rooms  []uuid.UUID
}

func (m *mockBroadcaster) BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event) {
	m.rooms = append(m.rooms, restaurantID)
	m.events = append(m.events, event)
}

// serve mounts the handler under the restaurant-scoped route and runs one
// request through a real chi router so URL params resolve.
func serve(register func(chi.Router), req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}", register)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
