package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"docvault/internal/blobstore"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

// ExtractionQueue accepts extraction jobs for stored file nodes. Submit is
// non-blocking; a full queue is an error the ingestion path logs and drops.
type ExtractionQueue interface {
	Submit(nodeID string) error
}

// IngestService turns upload and folder-creation requests into validated
// nodes. The payload is committed to the blob store before the record is
// inserted, so a file node never references a blob that was not durably
// stored first.
type IngestService struct {
	tree   *TreeService
	blobs  blobstore.Store
	queue  ExtractionQueue
	logger *slog.Logger
}

func NewIngestService(tree *TreeService, blobs blobstore.Store, queue ExtractionQueue, logger *slog.Logger) *IngestService {
	return &IngestService{
		tree:   tree,
		blobs:  blobs,
		queue:  queue,
		logger: logger,
	}
}

// Upload stores the content and creates the file node. If node creation
// fails on a duplicate name, the just-written blob is reclaimed with a
// compensating delete so no orphan is left behind.
//
// On success an extraction job is enqueued best-effort: if the queue is
// unavailable the node still stands with extracted_text unset, and no
// enqueue retry is attempted here.
func (s *IngestService) Upload(ctx context.Context, name string, parentID *string, content io.Reader, mimeType string) (*models.Node, error) {
	locator, size, err := s.blobs.Put(ctx, content)
	if err != nil {
		return nil, err
	}

	node, err := s.tree.CreateFile(ctx, name, parentID, locator, mimeType, size)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, locator); delErr != nil {
			s.logger.Warn("orphan blob reclamation failed",
				"locator", locator,
				"error", delErr,
			)
		}
		return nil, err
	}

	if err := s.queue.Submit(node.ID); err != nil {
		s.logger.Warn("extraction enqueue failed, file stored without text",
			"node_id", node.ID,
			"error", err,
		)
	}

	return node, nil
}

// CreateFolder validates the request and delegates to the tree service.
func (s *IngestService) CreateFolder(ctx context.Context, req *models.CreateFolderRequest) (*models.Node, error) {
	return s.tree.CreateFolder(ctx, req.Name, req.ParentID)
}

// Download opens the payload of a file node for streaming.
func (s *IngestService) Download(ctx context.Context, id string) (*models.Node, io.ReadCloser, error) {
	node, err := s.tree.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if node.IsFolder || node.Path == nil {
		return nil, nil, fmt.Errorf("%w: cannot download a folder", domain.ErrValidation)
	}

	content, err := s.blobs.Get(ctx, *node.Path)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}

	return node, content, nil
}
