package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openreel/reelrender/internal/api"
	"github.com/openreel/reelrender/internal/assets"
	"github.com/openreel/reelrender/internal/config"
	"github.com/openreel/reelrender/internal/db"
	"github.com/openreel/reelrender/internal/queue"
	"github.com/openreel/reelrender/internal/render"
	"github.com/openreel/reelrender/internal/slide"
	"github.com/openreel/reelrender/internal/storage"
	"github.com/openreel/reelrender/internal/worker"
)

func main() {
	log.Println("Starting ReelRender API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Media host is optional — without it, finished videos come back inline
	var uploader render.Uploader
	if cfg.MediaHostURL != "" {
		uploader = storage.New(cfg.MediaHostURL, cfg.MediaHostToken, cfg.MediaHostBucket)
		log.Printf("Media host configured (bucket: %s)", cfg.MediaHostBucket)
	} else {
		log.Println("No media host configured — videos returned inline as data URIs")
	}

	renderer := render.New(
		assets.NewResolver(),
		slide.NewSynthesizer(cfg.SlideFontPath),
		uploader,
		cfg.WorkDir,
		time.Duration(cfg.RenderTimeoutSec)*time.Second,
	)

	// Create API handler
	handler := api.NewHandler(database, q, renderer)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		w := worker.New(database, q, renderer)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
