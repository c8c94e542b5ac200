package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meja-order/api/internal/config"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/handler"
	"github.com/meja-order/api/internal/service"
	"github.com/meja-order/api/internal/ws"
)

// New creates a Chi router with all application routes wired up. Every
// mutating route runs through the transaction core; reads go straight to the
// query layer.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration: guest pages are served from arbitrary origins
	// (QR code landing pages), so the API is open and state lives server-side.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket dashboard feed
	r.Get("/ws/restaurants/{rid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// The transaction core: one runner shared by every service.
	runner := service.NewPgxRunner(pool, func(db database.DBTX) service.Store {
		return database.New(db)
	})
	orderSvc := service.NewOrderService(runner)
	tableSvc := service.NewTableService(runner, queries)
	callSvc := service.NewWaiterCallService(runner)

	retryCfg := service.RetryConfig{
		MaxRetries: cfg.MaxTxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
	}

	r.Route("/restaurants/{rid}", func(r chi.Router) {
		handler.NewOrderHandler(orderSvc, queries, hub, retryCfg).RegisterRoutes(r)
		handler.NewTableHandler(tableSvc, queries, hub).RegisterRoutes(r)
		handler.NewWaiterCallHandler(callSvc, queries, hub).RegisterRoutes(r)
		handler.NewMenuHandler(queries).RegisterRoutes(r)
	})

	return r
}
