package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meja-order/api/internal/config"
	"github.com/meja-order/api/internal/database"
	"github.com/meja-order/api/internal/router"
	"github.com/meja-order/api/internal/service"
	"github.com/meja-order/api/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	// Auto-cancel sweeper: the core itself never schedules work, so the
	// ticker lives here with the rest of the wiring.
	runner := service.NewPgxRunner(pool, func(db database.DBTX) service.Store {
		return database.New(db)
	})
	sweeper := service.NewSweeper(queries, service.NewOrderService(runner), cfg.PendingOrderTimeout)
	go runSweeper(ctx, sweeper, cfg.SweepInterval)

	r := router.New(cfg, queries, pool, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

func runSweeper(ctx context.Context, sweeper *service.Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := sweeper.Sweep(ctx)
			if err != nil {
				log.Printf("ERROR: sweep stale orders: %v", err)
				continue
			}
			if result.Succeeded > 0 || result.Failed > 0 {
				log.Printf("Sweeper auto-cancelled %d orders (%d failed)", result.Succeeded, result.Failed)
			}
		}
	}
}
