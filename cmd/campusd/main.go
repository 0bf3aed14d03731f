package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-occupancy-backend/config"
	"campus-occupancy-backend/internal/api"
	"campus-occupancy-backend/internal/db"
	"campus-occupancy-backend/internal/insight"
	"campus-occupancy-backend/internal/live"
	"campus-occupancy-backend/internal/notification"
	"campus-occupancy-backend/internal/sensor"
	"campus-occupancy-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "campusd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// The live channel hub is owned here and injected everywhere it is
	// needed. Prime its status table from the latest persisted samples so
	// snapshots are useful immediately after a restart.
	hub := live.NewHub()
	latest, err := appStore.LatestRecords(ctx)
	if err != nil {
		logger.Fatalf("failed to prime live status: %v", err)
	}
	hub.Prime(latest)
	go hub.Run(ctx)
	logger.Printf("live channel initialized with %d primed rooms", len(latest))

	// Sensor poller feeds the store, the hub, and the notifier.
	sensorSvc := sensor.NewService(cfg, appStore, hub)
	go sensorSvc.Run(ctx)

	// Insight generator with an explicitly constructed model client.
	gemini := insight.NewGeminiClient(&cfg.AI)
	insights := insight.NewGenerator(appStore, gemini)

	webpushOptions := notification.OptionsFromConfig(&cfg.Push)
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; push notification endpoints will be inert")
	}

	router := api.NewRouter(appStore, hub, insights, webpushOptions, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
