package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"docvault/internal/domain/models"
	"docvault/internal/service"
)

// Entry is one node in a YAML fixture. Entries with children or an explicit
// folder flag become folders; everything else becomes a file whose content
// is the inline string.
type Entry struct {
	Name     string  `yaml:"name"`
	Folder   bool    `yaml:"folder"`
	Content  string  `yaml:"content"`
	MimeType string  `yaml:"mime_type"`
	Children []Entry `yaml:"children"`
}

// Fixture is a whole seed file.
type Fixture struct {
	Tree []Entry `yaml:"tree"`
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	return &fixture, nil
}

// Apply creates the fixture's tree through the ingestion path, so every
// invariant that guards real uploads also guards seeds.
func Apply(ctx context.Context, fixture *Fixture, ingest *service.IngestService, logger *slog.Logger) error {
	type item struct {
		entry    Entry
		parentID *string
	}

	queue := make([]item, 0, len(fixture.Tree))
	for _, entry := range fixture.Tree {
		queue = append(queue, item{entry: entry})
	}

	created := 0
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		node, err := apply(ctx, next.entry, next.parentID, ingest)
		if err != nil {
			return fmt.Errorf("seed %q: %w", next.entry.Name, err)
		}
		created++

		for _, child := range next.entry.Children {
			queue = append(queue, item{entry: child, parentID: &node.ID})
		}
	}

	logger.Info("fixture applied", "nodes", created)
	return nil
}

func apply(ctx context.Context, entry Entry, parentID *string, ingest *service.IngestService) (*models.Node, error) {
	if entry.Folder || len(entry.Children) > 0 {
		return ingest.CreateFolder(ctx, &models.CreateFolderRequest{
			Name:     entry.Name,
			ParentID: parentID,
		})
	}

	mimeType := entry.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}

	return ingest.Upload(ctx, entry.Name, parentID, strings.NewReader(entry.Content), mimeType)
}
