package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Media host (public object store for finished renders).
	// When unset, rendered videos are returned inline as data URIs.
	MediaHostURL    string
	MediaHostToken  string
	MediaHostBucket string

	// Render
	WorkDir          string // Scratch space for per-job asset directories
	SlideFontPath    string // TTF/OTF used on the branding slide
	RenderTimeoutSec int    // Hard wall-clock limit per compositor run

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		MediaHostURL:       getEnv("MEDIA_HOST_URL", ""),
		MediaHostToken:     getEnv("MEDIA_HOST_TOKEN", ""),
		MediaHostBucket:    getEnv("MEDIA_HOST_BUCKET", "renders"),
		WorkDir:            getEnv("WORK_DIR", os.TempDir()),
		SlideFontPath:      getEnv("SLIDE_FONT_PATH", "assets/fonts/Inter-Bold.ttf"),
		RenderTimeoutSec:   getEnvInt("RENDER_TIMEOUT_SEC", 540),
		MaxConcurrentJobs:  getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.MediaHostURL != "" && cfg.MediaHostToken == "" {
		return nil, fmt.Errorf("MEDIA_HOST_TOKEN is required when MEDIA_HOST_URL is set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
