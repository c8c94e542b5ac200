package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/service"
)

// TableServicer defines the transaction-core methods needed by table
// handlers. Satisfied by *service.TableService.
type TableServicer interface {
	Lock(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error)
	Unlock(ctx context.Context, tableID, orderID uuid.UUID) (*database.Table, error)
	CheckAvailability(ctx context.Context, tableID uuid.UUID) (*service.AvailabilityResult, error)
	UpdateStatus(ctx context.Context, tableID uuid.UUID, newStatus string) (*database.Table, error)
}

// TableStore defines the database methods needed by table read handlers.
// Satisfied by *database.Queries.
type TableStore interface {
	ListTables(ctx context.Context, restaurantID uuid.UUID) ([]database.Table, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	svc   TableServicer
	store TableStore
	hub   Broadcaster
}

func NewTableHandler(svc TableServicer, store TableStore, hub Broadcaster) *TableHandler {
	return &TableHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers table endpoints on a restaurant-scoped subrouter.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
	r.Get("/tables/{tid}/availability", h.Availability)
	r.Patch("/tables/{tid}/status", h.UpdateStatus)
	r.Post("/tables/{tid}/lock", h.Lock)
	r.Post("/tables/{tid}/unlock", h.Unlock)
}

// --- Request / Response types ---

type tableResponse struct {
	ID             uuid.UUID `json:"id"`
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	Number         int32     `json:"number"`
	Seats          int32     `json:"seats"`
	Status         string    `json:"status"`
	IsLocked       bool      `json:"is_locked"`
	CurrentOrderID *string   `json:"current_order_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type availabilityResponse struct {
	Available bool          `json:"available"`
	Table     tableResponse `json:"table"`
}

type updateTableStatusRequest struct {
	Status string `json:"status"`
}

type tableLockRequest struct {
	OrderID string `json:"order_id"`
}

// --- Handlers ---

// List handles GET /restaurants/{rid}/tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	tables, err := h.store.ListTables(r.Context(), restaurantID)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = dbTableToResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": resp})
}

// Availability handles GET /restaurants/{rid}/tables/{tid}/availability.
// Advisory pre-flight check for the guest UI; the creation transaction
// re-validates, so this is never the sole gate.
func (h *TableHandler) Availability(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	result, err := h.svc.CheckAvailability(r.Context(), tableID)
	if err != nil {
		writeTxError(w, "check availability", err)
		return
	}
	if result.Table.RestaurantID != restaurantID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		Available: result.Available,
		Table:     dbTableToResponse(result.Table),
	})
}

// UpdateStatus handles PATCH /restaurants/{rid}/tables/{tid}/status.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req updateTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	table, err := h.svc.UpdateStatus(r.Context(), tableID, req.Status)
	if err != nil {
		writeTxError(w, "update table status", err)
		return
	}

	resp := dbTableToResponse(*table)
	broadcast(h.hub, restaurantID, "table.updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// Lock handles POST /restaurants/{rid}/tables/{tid}/lock.
func (h *TableHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.lockUnlock(w, r, true)
}

// Unlock handles POST /restaurants/{rid}/tables/{tid}/unlock.
func (h *TableHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.lockUnlock(w, r, false)
}

func (h *TableHandler) lockUnlock(w http.ResponseWriter, r *http.Request, lock bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req tableLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}

	var table *database.Table
	if lock {
		table, err = h.svc.Lock(r.Context(), tableID, orderID)
	} else {
		table, err = h.svc.Unlock(r.Context(), tableID, orderID)
	}
	if err != nil {
		op := "unlock table"
		if lock {
			op = "lock table"
		}
		writeTxError(w, op, err)
		return
	}

	resp := dbTableToResponse(*table)
	broadcast(h.hub, restaurantID, "table.updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func dbTableToResponse(t database.Table) tableResponse {
	resp := tableResponse{
		ID:           t.ID,
		RestaurantID: t.RestaurantID,
		Number:       t.Number,
		Seats:        t.Seats,
		Status:       t.Status,
		IsLocked:     t.IsLocked,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.CurrentOrderID.Valid {
		s := uuid.UUID(t.CurrentOrderID.Bytes).String()
		resp.CurrentOrderID = &s
	}
	return resp
}
