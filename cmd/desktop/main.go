package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1abama1/prokatgo/internal/auth"
	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/config"
	"github.com/1abama1/prokatgo/internal/contracts"
	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/handlers"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/1abama1/prokatgo/internal/store"
	"github.com/1abama1/prokatgo/internal/sync"
	"github.com/1abama1/prokatgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (SQLite by default, Postgres for shared counters)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.Contract{},
		&models.SyncAction{},
		&models.SyncMetadata{},
		&models.CachedClient{},
		&models.CachedTool{},
	)
	if err != nil {
		log.Printf("⚠️  Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Backend client with persisted bearer token
	tokens, err := auth.NewTokenStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open token store: %v", err)
	}
	api := backend.NewClient(cfg.BackendURL, time.Duration(cfg.Sync.RequestTimeout)*time.Second, tokens)

	// 5. Stores over the local database
	contractStore := store.NewContracts(db)
	queue := store.NewQueue(db)
	metadata := store.NewMetadata(db)
	refdata := store.NewRefData(db)

	// 6. Connectivity monitor + sync engine
	monitor := sync.NewMonitor(
		api.Health,
		time.Duration(cfg.Sync.HealthInterval)*time.Second,
		time.Duration(cfg.Sync.RequestTimeout)*time.Second,
	)
	engine := sync.NewEngine(contractStore, queue, metadata, api, monitor, cfg.Sync, nil)

	hub := websocket.NewHub()
	go hub.Run()

	monitor.OnChange(func(online bool) {
		status := engine.Status()
		status["type"] = "sync_status"
		hub.Broadcast(status)
	})
	monitor.OnRestore(engine.RequestSync)
	monitor.Start()

	if cfg.Sync.Enabled {
		if err := engine.Start(); err != nil {
			log.Printf("⚠️  Sync engine: failed to start: %v", err)
		}
	} else {
		log.Println("⏭️  Sync engine disabled by configuration")
	}

	// 7. Contract façade and local API
	svc := contracts.NewService(contractStore, queue, api, monitor, engine)
	router := handlers.NewRouter(svc, api, refdata, engine, monitor, hub, tokens)

	server := &http.Server{
		Addr:    "127.0.0.1:" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Local API listening on 127.0.0.1:%s (backend: %s)\n", cfg.Port, cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	engine.Stop()
	monitor.Stop()

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
