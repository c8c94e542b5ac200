package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meja-order/api/internal/enum"
	"github.com/meja-order/api/internal/service"
)

func TestCreateWaiterCall(t *testing.T) {
	runner := newFakeRunner()
	restaurantID := uuid.New()
	table := addTable(runner, restaurantID, 5)

	svc := service.NewWaiterCallService(runner)
	call, err := svc.Create(context.Background(), service.CreateWaiterCallRequest{
		RestaurantID: restaurantID,
		TableID:      table.ID,
		Type:         enum.WaiterCallTypeBill,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if call.Status != enum.WaiterCallStatusPending {
		t.Errorf("status = %s, want PENDING", call.Status)
	}
	if call.Type != enum.WaiterCallTypeBill {
		t.Errorf("type = %s, want BILL", call.Type)
	}
	if call.AccountID != table.AccountID {
		t.Error("call did not inherit the table's account")
	}
	if call.TableNumber != table.Number {
		t.Errorf("table number = %d, want %d", call.TableNumber, table.Number)
	}
}

func TestCreateWaiterCallDoesNotTouchLock(t *testing.T) {
	runner := newFakeRunner()
	restaurantID := uuid.New()
	owner := uuid.New()
	table := addLockedTable(runner, restaurantID, 1, owner)

	svc := service.NewWaiterCallService(runner)
	if _, err := svc.Create(context.Background(), service.CreateWaiterCallRequest{
		RestaurantID: restaurantID,
		TableID:      table.ID,
		Type:         enum.WaiterCallTypeService,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := runner.snapshot().tables[table.ID]
	if !got.IsLocked || uuid.UUID(got.CurrentOrderID.Bytes) != owner {
		t.Error("waiter call disturbed the table lock")
	}
}

func TestCreateWaiterCallInvalidType(t *testing.T) {
	svc := service.NewWaiterCallService(newFakeRunner())
	_, err := svc.Create(context.Background(), service.CreateWaiterCallRequest{
		RestaurantID: uuid.New(),
		TableID:      uuid.New(),
		Type:         "KARAOKE",
	})
	if service.CodeOf(err) != service.CodeValidationError {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestCreateWaiterCallTableNotFound(t *testing.T) {
	svc := service.NewWaiterCallService(newFakeRunner())
	_, err := svc.Create(context.Background(), service.CreateWaiterCallRequest{
		RestaurantID: uuid.New(),
		TableID:      uuid.New(),
		Type:         enum.WaiterCallTypeService,
	})
	if service.CodeOf(err) != service.CodeInvalidTable {
		t.Fatalf("err = %v, want INVALID_TABLE", err)
	}
}

func TestCreateWaiterCallWrongRestaurant(t *testing.T) {
	runner := newFakeRunner()
	table := addTable(runner, uuid.New(), 1)

	svc := service.NewWaiterCallService(runner)
	_, err := svc.Create(context.Background(), service.CreateWaiterCallRequest{
		RestaurantID: uuid.New(),
		TableID:      table.ID,
		Type:         enum.WaiterCallTypeOther,
	})
	if service.CodeOf(err) != service.CodeInvalidRestaurant {
		t.Fatalf("err = %v, want INVALID_RESTAURANT", err)
	}
}
