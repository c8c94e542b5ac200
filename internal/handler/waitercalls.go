package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/service"
)

// WaiterCallServicer is satisfied by *service.WaiterCallService.
type WaiterCallServicer interface {
	Create(ctx context.Context, req service.CreateWaiterCallRequest) (*database.WaiterCall, error)
}

// WaiterCallStore defines the database methods for resolve/list.
// Satisfied by *database.Queries.
type WaiterCallStore interface {
	ResolveWaiterCall(ctx context.Context, arg database.ResolveWaiterCallParams) (database.WaiterCall, error)
	ListWaiterCalls(ctx context.Context, arg database.ListWaiterCallsParams) ([]database.WaiterCall, error)
}

// WaiterCallHandler handles waiter-call endpoints.
type WaiterCallHandler struct {
	svc   WaiterCallServicer
	store WaiterCallStore
	hub   Broadcaster
}

func NewWaiterCallHandler(svc WaiterCallServicer, store WaiterCallStore, hub Broadcaster) *WaiterCallHandler {
	return &WaiterCallHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers waiter-call endpoints on a restaurant-scoped
// subrouter.
func (h *WaiterCallHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tables/{tid}/calls", h.Create)
	r.Get("/calls", h.List)
	r.Patch("/calls/{id}/resolve", h.Resolve)
}

// --- Request / Response types ---

type createWaiterCallRequest struct {
	Type string `json:"type"`
}

type waiterCallResponse struct {
	ID           uuid.UUID  `json:"id"`
	RestaurantID uuid.UUID  `json:"restaurant_id"`
	TableID      uuid.UUID  `json:"table_id"`
	TableNumber  int32      `json:"table_number"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

// --- Handlers ---

// Create handles POST /restaurants/{rid}/tables/{tid}/calls.
func (h *WaiterCallHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createWaiterCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Type == "" {
		req.Type = "SERVICE"
	}

	call, err := h.svc.Create(r.Context(), service.CreateWaiterCallRequest{
		RestaurantID: restaurantID,
		TableID:      tableID,
		Type:         req.Type,
	})
	if err != nil {
		writeTxError(w, "create waiter call", err)
		return
	}

	resp := dbWaiterCallToResponse(*call)
	broadcast(h.hub, restaurantID, "waiter_call.created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /restaurants/{rid}/calls?status=PENDING.
func (h *WaiterCallHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	params := database.ListWaiterCallsParams{RestaurantID: restaurantID}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	calls, err := h.store.ListWaiterCalls(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list waiter calls: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]waiterCallResponse, len(calls))
	for i, c := range calls {
		resp[i] = dbWaiterCallToResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": resp})
}

// Resolve handles PATCH /restaurants/{rid}/calls/{id}/resolve. Resolving an
// already-resolved call is a conflict, enforced by the conditional update.
func (h *WaiterCallHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	callID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid call ID"})
		return
	}

	call, err := h.store.ResolveWaiterCall(r.Context(), database.ResolveWaiterCallParams{
		ID:           callID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "call not found or already resolved"})
			return
		}
		log.Printf("ERROR: resolve waiter call: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbWaiterCallToResponse(call)
	broadcast(h.hub, restaurantID, "waiter_call.resolved", resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func dbWaiterCallToResponse(c database.WaiterCall) waiterCallResponse {
	resp := waiterCallResponse{
		ID:           c.ID,
		RestaurantID: c.RestaurantID,
		TableID:      c.TableID,
		TableNumber:  c.TableNumber,
		Type:         c.Type,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
	}
	if c.ResolvedAt.Valid {
		t := c.ResolvedAt.Time
		resp.ResolvedAt = &t
	}
	return resp
}
