package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/meja-order/api/internal/service"
	"github.com/meja-order/api/internal/ws"
)

// Broadcaster pushes events to dashboard clients.
// Satisfied by *ws.Hub; narrow interface for testability.
type Broadcaster interface {
	BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// writeTxError maps the core's closed error-code set onto HTTP statuses and
// renders the code, message, retryable flag and structured detail for the UI.
func writeTxError(w http.ResponseWriter, op string, err error) {
	txErr, ok := service.AsTxError(err)
	if !ok {
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var status int
	switch txErr.Code {
	case service.CodeValidationError:
		status = http.StatusBadRequest
	case service.CodeInvalidTable, service.CodeInvalidRestaurant:
		status = http.StatusNotFound
	case service.CodeTableLocked, service.CodeInvalidStateTransition:
		status = http.StatusConflict
	case service.CodeTransactionAborted, service.CodeConcurrentModification, service.CodeMaxRetriesExceeded:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s: %v", op, err)
	}

	body := map[string]any{
		"error":     txErr.Message,
		"code":      txErr.Code,
		"retryable": txErr.Retryable,
	}
	if txErr.Detail != nil {
		body["detail"] = txErr.Detail
	}
	writeJSON(w, status, body)
}

// broadcast marshals payload and pushes it to the restaurant's room. Failures
// only cost the event, never the request.
func broadcast(hub Broadcaster, restaurantID uuid.UUID, eventType string, payload any) {
	if hub == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	hub.BroadcastToRestaurant(restaurantID, ws.Event{Type: eventType, Payload: raw})
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	v, err := n.Value()
	if err != nil || v == nil {
		return "0"
	}
	return v.(string)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
