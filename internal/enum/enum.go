package enum

// ── Table state machine (CHECK constrained in DB) ──

const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOccupied  = "OCCUPIED"
	TableStatusReserved  = "RESERVED"
)

// ── Order status pipeline (CHECK constrained in DB) ──

const (
	OrderStatusPending       = "PENDING"
	OrderStatusAccepted      = "ACCEPTED"
	OrderStatusPreparing     = "PREPARING"
	OrderStatusReady         = "READY"
	OrderStatusServed        = "SERVED"
	OrderStatusPaid          = "PAID"
	OrderStatusCancelled     = "CANCELLED"
	OrderStatusAutoCancelled = "AUTO_CANCELLED"
)

// ── Waiter calls ──

const (
	WaiterCallTypeService = "SERVICE"
	WaiterCallTypeBill    = "BILL"
	WaiterCallTypeOther   = "OTHER"
)

const (
	WaiterCallStatusPending  = "PENDING"
	WaiterCallStatusResolved = "RESOLVED"
)

// IsValidTableStatus reports whether s is a known table status.
func IsValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	}
	return false
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusPreparing,
		OrderStatusReady, OrderStatusServed, OrderStatusPaid,
		OrderStatusCancelled, OrderStatusAutoCancelled:
		return true
	}
	return false
}

// IsUnlockingStatus reports whether an order reaching s must release its
// table. PAID, CANCELLED and AUTO_CANCELLED are the terminal statuses for
// table-unlock purposes.
func IsUnlockingStatus(s string) bool {
	switch s {
	case OrderStatusPaid, OrderStatusCancelled, OrderStatusAutoCancelled:
		return true
	}
	return false
}

// IsValidWaiterCallType reports whether s is a known waiter-call type.
func IsValidWaiterCallType(s string) bool {
	switch s {
	case WaiterCallTypeService, WaiterCallTypeBill, WaiterCallTypeOther:
		return true
	}
	return false
}
