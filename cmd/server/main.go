package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"docvault/internal/auth"
	"docvault/internal/blobstore"
	"docvault/internal/config"
	"docvault/internal/domain/repositories"
	"docvault/internal/extraction"
	"docvault/internal/handler"
	"docvault/internal/middleware"
	"docvault/internal/repository/memory"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_driver", cfg.StorageDriver,
		"blob_driver", cfg.BlobDriver,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Node repository
	var nodeRepo repositories.NodeRepository
	switch cfg.StorageDriver {
	case "memory":
		nodeRepo = memory.NewNodeRepository()
	default:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}

		nodeRepo = postgres.NewNodeRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Logger: logger,
		})
		logger.Info("database connected")
	}

	// Blob store
	var blobs blobstore.Store
	switch cfg.BlobDriver {
	case "gcs":
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatalf("Failed to create GCS client: %v", err)
		}
		defer gcsClient.Close()
		blobs = blobstore.NewGCSStore(gcsClient, cfg.GCSBucket)
	case "memory":
		blobs = blobstore.NewMemoryStore()
	default:
		diskStore, err := blobstore.NewDiskStore(cfg.BlobRoot)
		if err != nil {
			log.Fatalf("Failed to create blob store: %v", err)
		}
		blobs = diskStore
	}

	// Extraction pipeline
	recognizer := extraction.NewClient(cfg.RecognizerURL, cfg.RecognizerTimeout)
	pipeline := extraction.NewPipeline(extraction.Config{
		Workers:    cfg.ExtractWorkers,
		QueueSize:  cfg.ExtractQueueSize,
		JobTimeout: cfg.ExtractJobTimeout,
		MaxRetries: cfg.ExtractMaxRetries,
	}, nodeRepo, blobs, recognizer, logger)
	pipeline.Start(ctx)

	// Services
	treeService := service.NewTreeService(nodeRepo, blobs, logger)
	ingestService := service.NewIngestService(treeService, blobs, pipeline, logger)

	// Auth
	if cfg.AuthSecret == "" || cfg.AuthPassword == "" {
		log.Fatalf("AUTH_SECRET and AUTH_PASSWORD are required")
	}
	issuer := auth.NewTokenIssuer(cfg.AuthSecret, cfg.TokenTTL)

	// Handlers
	nodeHandler := handler.NewNodeHandler(treeService, ingestService, logger, cfg.MaxUploadBytes)
	authHandler := handler.NewAuthHandler(issuer, cfg.AuthEmail, cfg.AuthPassword, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", nodeHandler.HealthCheck)
	mux.HandleFunc("POST /api/login", authHandler.Login)

	mux.HandleFunc("GET /api/files", nodeHandler.List)
	mux.HandleFunc("POST /api/files", nodeHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}/download", nodeHandler.Download)
	mux.HandleFunc("DELETE /api/files/{id}", nodeHandler.Delete)

	mux.HandleFunc("POST /api/folders", nodeHandler.CreateFolder)

	// Middleware chain, applied in reverse order (they wrap each other)
	var root http.Handler = mux
	root = middleware.Auth(issuer, "/health", "/api/login")(root)
	root = middleware.RequestLogger(logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down...")

		// Drain HTTP first so in-flight uploads can still enqueue, then
		// stop the workers.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)

		pipeline.Stop()
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
