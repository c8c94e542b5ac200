package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the transaction-core methods needed by order
// handlers. Satisfied by *service.OrderService; narrow interface for
// testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (*service.UpdateStatusResult, error)
	BatchUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, newStatus string) (*service.BatchStatusResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
	retry service.RetryConfig
}

func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster, retry service.RetryConfig) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub, retry: retry}
}

// RegisterRoutes registers order endpoints on a restaurant-scoped subrouter:
// /restaurants/{rid}/...
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tables/{tid}/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/batch-status", h.BatchUpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	Items                   []createOrderItemRequest `json:"items"`
	Total                   string                   `json:"total"`
	CustomerName            string                   `json:"customer_name"`
	CustomerPhone           string                   `json:"customer_phone"`
	Notes                   string                   `json:"notes"`
	ValidatePrices          *bool                    `json:"validate_prices"`
	CheckInventory          bool                     `json:"check_inventory"`
	AllowPartialFulfillment bool                     `json:"allow_partial_fulfillment"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int32  `json:"quantity"`
	Note       string `json:"note"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	RestaurantID  uuid.UUID           `json:"restaurant_id"`
	TableID       uuid.UUID           `json:"table_id"`
	TableNumber   int32               `json:"table_number"`
	Status        string              `json:"status"`
	Total         string              `json:"total"`
	CustomerName  *string             `json:"customer_name"`
	CustomerPhone *string             `json:"customer_phone"`
	Notes         *string             `json:"notes"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Items         []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int32     `json:"quantity"`
	Note       *string   `json:"note"`
}

type validationResponse struct {
	IsValid        bool     `json:"is_valid"`
	TotalRequested string   `json:"total_requested"`
	TotalValidated string   `json:"total_validated"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
}

type createOrderResponse struct {
	orderResponse
	TableUpdated bool               `json:"table_updated"`
	Validation   validationResponse `json:"validation"`
}

type updateOrderStatusRequest struct {
	Status  string `json:"status"`
	TableID string `json:"table_id"`
}

type updateOrderStatusResponse struct {
	orderResponse
	TableReleased bool `json:"table_released"`
}

type batchStatusRequest struct {
	OrderIDs []string `json:"order_ids"`
	Status   string   `json:"status"`
}

type batchItemResponse struct {
	OrderID string  `json:"order_id"`
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
	Code    *string `json:"code,omitempty"`
}

type batchStatusResponse struct {
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []batchItemResponse `json:"results"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /restaurants/{rid}/tables/{tid}/orders.
// The creation transaction is wrapped in the retry loop, so transient
// conflicts (TABLE_LOCKED, aborts) are retried with backoff before the guest
// sees an error.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	total := decimal.Zero
	if req.Total != "" {
		total, err = decimal.NewFromString(req.Total)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid total"})
			return
		}
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "invalid menu_item_id"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "invalid unit_price"),
			})
			return
		}
		items[i] = service.CreateOrderItemRequest{
			MenuItemID: menuItemID,
			Name:       item.Name,
			UnitPrice:  unitPrice,
			Quantity:   item.Quantity,
			Note:       item.Note,
		}
	}

	opts := service.DefaultOrderOptions()
	if req.ValidatePrices != nil {
		opts.ValidatePrices = *req.ValidatePrices
	}
	opts.CheckInventory = req.CheckInventory
	opts.AllowPartialFulfillment = req.AllowPartialFulfillment

	svcReq := service.CreateOrderRequest{
		RestaurantID:  restaurantID,
		TableID:       tableID,
		Items:         items,
		Total:         total,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		Options:       opts,
	}

	result, err := service.ExecuteWithRetry(r.Context(), h.retry,
		func(ctx context.Context) (*service.CreateOrderResult, error) {
			return h.svc.CreateOrder(ctx, svcReq)
		})
	if err != nil {
		writeTxError(w, "create order", err)
		return
	}

	resp := createOrderResponse{
		orderResponse: dbOrderToResponse(result.Order, result.Items),
		TableUpdated:  result.TableUpdated,
		Validation:    toValidationResponse(result.Validation),
	}
	broadcast(h.hub, restaurantID, "order.created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /restaurants/{rid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		RestaurantID: restaurantID,
		Limit:        int32(limit),
		Offset:       int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /restaurants/{rid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(order, items))
}

// UpdateStatus handles PATCH /restaurants/{rid}/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	// Scope check: the order must belong to this restaurant before the
	// transaction runs.
	if _, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	svcReq := service.UpdateStatusRequest{
		OrderID:   orderID,
		NewStatus: req.Status,
	}
	if req.TableID != "" {
		tableID, err := uuid.Parse(req.TableID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
			return
		}
		svcReq.TableID = tableID
	}

	result, err := h.svc.UpdateStatus(r.Context(), svcReq)
	if err != nil {
		writeTxError(w, "update order status", err)
		return
	}

	resp := updateOrderStatusResponse{
		orderResponse: dbOrderToResponse(result.Order, nil),
		TableReleased: result.TableReleased,
	}
	broadcast(h.hub, restaurantID, "order.status_updated", resp)
	if result.TableReleased && result.Table != nil {
		broadcast(h.hub, restaurantID, "table.updated", dbTableToResponse(*result.Table))
	}
	writeJSON(w, http.StatusOK, resp)
}

// BatchUpdateStatus handles POST /restaurants/{rid}/orders/batch-status.
// Orders are updated one transaction each; partial failure is reported per
// order, not as a batch error.
func (h *OrderHandler) BatchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req batchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_ids are required"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	ids := make([]uuid.UUID, len(req.OrderIDs))
	for i, s := range req.OrderIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "order_ids[" + strconv.Itoa(i) + "]: invalid order id",
			})
			return
		}
		ids[i] = id
	}

	result, err := h.svc.BatchUpdateStatus(r.Context(), ids, req.Status)
	if err != nil {
		writeTxError(w, "batch update status", err)
		return
	}

	resp := batchStatusResponse{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Results:   make([]batchItemResponse, len(result.Results)),
	}
	for i, item := range result.Results {
		br := batchItemResponse{
			OrderID: item.OrderID.String(),
			Success: item.Err == nil,
		}
		if item.Err != nil {
			msg := item.Err.Error()
			br.Error = &msg
			if code := service.CodeOf(item.Err); code != "" {
				br.Code = &code
			}
		}
		resp.Results[i] = br
	}

	broadcast(h.hub, restaurantID, "order.status_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

func dbOrderToResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		RestaurantID:  o.RestaurantID,
		TableID:       o.TableID,
		TableNumber:   o.TableNumber,
		Status:        o.Status,
		Total:         numericToString(o.Total),
		CustomerName:  textPtr(o.CustomerName),
		CustomerPhone: textPtr(o.CustomerPhone),
		Notes:         textPtr(o.Notes),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Items:         []orderItemResponse{},
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  numericToString(it.UnitPrice),
			Quantity:   it.Quantity,
			Note:       textPtr(it.Note),
		})
	}
	return resp
}

func toValidationResponse(v service.OrderValidation) validationResponse {
	resp := validationResponse{
		IsValid:        v.IsValid,
		TotalRequested: v.TotalRequested.StringFixed(2),
		TotalValidated: v.TotalValidated.StringFixed(2),
		Errors:         v.Errors,
		Warnings:       v.Warnings,
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp
}
