package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Storage
	StorageDriver string // postgres | memory
	DatabaseURL   string
	BlobDriver    string // disk | gcs | memory
	BlobRoot      string
	GCSBucket     string

	// Uploads
	MaxUploadBytes int64

	// Extraction
	RecognizerURL     string
	RecognizerTimeout time.Duration // bound on the external HTTP call
	ExtractJobTimeout time.Duration // bound on one job end to end
	ExtractWorkers    int
	ExtractQueueSize  int
	ExtractMaxRetries int

	// Auth
	AuthSecret   string
	AuthEmail    string
	AuthPassword string
	TokenTTL     time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		BlobDriver:    getEnv("BLOB_DRIVER", "disk"),
		BlobRoot:      getEnv("BLOB_ROOT", "./data"),
		GCSBucket:     getEnv("GCS_BUCKET", ""),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10<<20), // 10MB

		RecognizerURL:     getEnv("RECOGNIZER_URL", "http://ocr:8000"),
		RecognizerTimeout: envDuration("RECOGNIZER_TIMEOUT", 2*time.Minute),
		ExtractJobTimeout: envDuration("EXTRACT_JOB_TIMEOUT", 5*time.Minute),
		ExtractWorkers:    envInt("EXTRACT_WORKERS", 4),
		ExtractQueueSize:  envInt("EXTRACT_QUEUE_SIZE", 100),
		ExtractMaxRetries: envInt("EXTRACT_MAX_RETRIES", 0),

		AuthSecret:   getEnv("AUTH_SECRET", ""),
		AuthEmail:    getEnv("AUTH_EMAIL", "admin@example.com"),
		AuthPassword: getEnv("AUTH_PASSWORD", ""),
		TokenTTL:     envDuration("TOKEN_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
