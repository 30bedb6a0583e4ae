package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"docvault/internal/blobstore"
	"docvault/internal/config"
	"docvault/internal/repository/postgres"
	"docvault/internal/seed"
	"docvault/internal/service"
)

// noQueue drops extraction jobs; seeded files don't go through OCR.
type noQueue struct{}

func (noQueue) Submit(nodeID string) error { return nil }

func main() {
	fixturePath := flag.String("fixture", "fixtures/tree.yaml", "Path to the YAML fixture to apply")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed nodes")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	blobs, err := blobstore.NewDiskStore(cfg.BlobRoot)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	nodeRepo := postgres.NewNodeRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	})
	treeService := service.NewTreeService(nodeRepo, blobs, logger)
	ingestService := service.NewIngestService(treeService, blobs, noQueue{}, logger)

	fixture, err := seed.LoadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	if err := seed.Apply(ctx, fixture, ingestService, logger); err != nil {
		log.Fatalf("Failed to apply fixture: %v", err)
	}
}
