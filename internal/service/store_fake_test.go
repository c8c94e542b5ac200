package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/enum"
	"github.com/meja-order/api/internal/service"
)

// fakeData is the in-memory document set behind the fake store.
type fakeData struct {
	tables    map[uuid.UUID]database.Table
	menuItems map[uuid.UUID]database.MenuItem
	orders    map[uuid.UUID]database.Order
	items     map[uuid.UUID][]database.OrderItem
	calls     []database.WaiterCall
}

func newFakeData() *fakeData {
	return &fakeData{
		tables:    make(map[uuid.UUID]database.Table),
		menuItems: make(map[uuid.UUID]database.MenuItem),
		orders:    make(map[uuid.UUID]database.Order),
		items:     make(map[uuid.UUID][]database.OrderItem),
	}
}

func (d *fakeData) clone() *fakeData {
	c := newFakeData()
	for k, v := range d.tables {
		c.tables[k] = v
	}
	for k, v := range d.menuItems {
		c.menuItems[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.items {
		c.items[k] = append([]database.OrderItem(nil), v...)
	}
	c.calls = append([]database.WaiterCall(nil), d.calls...)
	return c
}

// fakeRunner serializes units of work with a mutex (standing in for the
// store's conflict detection) and commits copy-on-write: a failed unit
// leaves the data untouched, exactly like a rolled-back transaction.
type fakeRunner struct {
	mu   sync.Mutex
	data *fakeData

	// injectErr is returned for the next injectN units of work before the
	// runner behaves normally again. Used to simulate store-level aborts.
	injectErr error
	injectN   int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{data: newFakeData()}
}

func (r *fakeRunner) RunAtomic(_ context.Context, fn func(store service.Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.injectN > 0 {
		r.injectN--
		return r.injectErr
	}

	clone := r.data.clone()
	if err := fn(&fakeStore{data: clone}); err != nil {
		if _, ok := service.AsTxError(err); ok {
			return err
		}
		return &service.TxError{Code: service.CodeTransactionFailed, Message: "transaction failed", Err: err}
	}
	r.data = clone
	return nil
}

// snapshot returns a consistent copy for assertions.
func (r *fakeRunner) snapshot() *fakeData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.clone()
}

// fakeStore implements service.Store over fakeData.
type fakeStore struct {
	data *fakeData
}

func (s *fakeStore) GetTable(_ context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := s.data.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (s *fakeStore) GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error) {
	return s.GetTable(ctx, id)
}

func (s *fakeStore) LockTable(_ context.Context, arg database.LockTableParams) (database.Table, error) {
	t, ok := s.data.tables[arg.ID]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	t.IsLocked = true
	t.CurrentOrderID = pgtype.UUID{Bytes: arg.CurrentOrderID, Valid: true}
	t.Status = enum.TableStatusOccupied
	t.UpdatedAt = time.Now()
	s.data.tables[arg.ID] = t
	return t, nil
}

func (s *fakeStore) UnlockTable(_ context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := s.data.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	t.IsLocked = false
	t.CurrentOrderID = pgtype.UUID{}
	t.Status = enum.TableStatusAvailable
	t.UpdatedAt = time.Now()
	s.data.tables[id] = t
	return t, nil
}

func (s *fakeStore) UpdateTableStatus(_ context.Context, arg database.UpdateTableStatusParams) (database.Table, error) {
	t, ok := s.data.tables[arg.ID]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	t.UpdatedAt = time.Now()
	s.data.tables[arg.ID] = t
	return t, nil
}

func (s *fakeStore) GetMenuItemForOrder(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	m, ok := s.data.menuItems[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return m, nil
}

func (s *fakeStore) CreateOrder(_ context.Context, arg database.CreateOrderParams) (database.Order, error) {
	now := time.Now()
	o := database.Order{
		ID:            arg.ID,
		AccountID:     arg.AccountID,
		RestaurantID:  arg.RestaurantID,
		TableID:       arg.TableID,
		TableNumber:   arg.TableNumber,
		Status:        arg.Status,
		Total:         arg.Total,
		CustomerName:  arg.CustomerName,
		CustomerPhone: arg.CustomerPhone,
		Notes:         arg.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.data.orders[o.ID] = o
	return o, nil
}

func (s *fakeStore) CreateOrderItem(_ context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		MenuItemID: arg.MenuItemID,
		Name:       arg.Name,
		UnitPrice:  arg.UnitPrice,
		Quantity:   arg.Quantity,
		Note:       arg.Note,
		CreatedAt:  time.Now(),
	}
	s.data.items[arg.OrderID] = append(s.data.items[arg.OrderID], it)
	return it, nil
}

func (s *fakeStore) GetOrderForUpdate(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := s.data.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *fakeStore) UpdateOrderStatus(_ context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := s.data.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.UpdatedAt = time.Now()
	s.data.orders[arg.ID] = o
	return o, nil
}

func (s *fakeStore) CreateWaiterCall(_ context.Context, arg database.CreateWaiterCallParams) (database.WaiterCall, error) {
	c := database.WaiterCall{
		ID:           uuid.New(),
		AccountID:    arg.AccountID,
		RestaurantID: arg.RestaurantID,
		TableID:      arg.TableID,
		TableNumber:  arg.TableNumber,
		Type:         arg.Type,
		Status:       enum.WaiterCallStatusPending,
		CreatedAt:    time.Now(),
	}
	s.data.calls = append(s.data.calls, c)
	return c, nil
}

// --- Fixture helpers ---

func mustNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func addTable(r *fakeRunner, restaurantID uuid.UUID, number int32) database.Table {
	t := database.Table{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		RestaurantID: restaurantID,
		Number:       number,
		Seats:        4,
		Status:       enum.TableStatusAvailable,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.data.tables[t.ID] = t
	return t
}

func addLockedTable(r *fakeRunner, restaurantID uuid.UUID, number int32, orderID uuid.UUID) database.Table {
	t := addTable(r, restaurantID, number)
	t.Status = enum.TableStatusOccupied
	t.IsLocked = true
	t.CurrentOrderID = pgtype.UUID{Bytes: orderID, Valid: true}
	r.data.tables[t.ID] = t
	return t
}

func addMenuItem(r *fakeRunner, restaurantID uuid.UUID, name, price string, available bool) database.MenuItem {
	m := database.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         name,
		Price:        mustNumeric(price),
		Available:    available,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.data.menuItems[m.ID] = m
	return m
}

func addOrder(r *fakeRunner, restaurantID, tableID uuid.UUID, status string) database.Order {
	o := database.Order{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		RestaurantID: restaurantID,
		TableID:      tableID,
		TableNumber:  1,
		Status:       status,
		Total:        mustNumeric("0"),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.data.orders[o.ID] = o
	return o
}
