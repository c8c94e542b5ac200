package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meja-order/api/internal/database"
)

// MenuStore is the read-only catalog view exposed to guests.
// Satisfied by *database.Queries; catalog management itself lives elsewhere.
type MenuStore interface {
	ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
}

// MenuHandler serves the guest-facing menu listing.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
}

type menuItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List handles GET /restaurants/{rid}/menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	items, err := h.store.ListAvailableMenuItems(r.Context(), restaurantID)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = menuItemResponse{
			ID:        m.ID,
			Name:      m.Name,
			Price:     numericToString(m.Price),
			UpdatedAt: m.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": resp})
}
