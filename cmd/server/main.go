package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hmes-platform/api/internal/config"
	"github.com/hmes-platform/api/internal/router"
	"github.com/hmes-platform/api/internal/store"
	"github.com/hmes-platform/api/internal/ws"
)

func main() {
	cfg := config.MustLoad()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := store.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router.New(cfg, queries, pool, hub),
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	log.Printf("Starting server on %s (env: %s)", cfg.Address, cfg.Env)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
