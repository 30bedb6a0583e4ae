package extraction

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"docvault/internal/blobstore"
	"docvault/internal/domain"
	"docvault/internal/domain/repositories"
)

// Worker processes a single extraction job: fetch the node's payload, send
// it to the recognizer, write the result back.
//
// A job owns no shared state beyond the one node it updates. Failures are
// recorded for operational visibility and the node keeps extracted_text
// unset; nothing here ever propagates to a user-facing path.
type Worker struct {
	repo   repositories.NodeRepository
	blobs  blobstore.Store
	client *Client
	cfg    Config
	logger *slog.Logger
}

func NewWorker(repo repositories.NodeRepository, blobs blobstore.Store, client *Client, cfg Config, logger *slog.Logger) *Worker {
	return &Worker{
		repo:   repo,
		blobs:  blobs,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Process runs one job under the configured deadline.
func (w *Worker) Process(ctx context.Context, nodeID string) {
	log := w.logger.With("node_id", nodeID)

	jobCtx := ctx
	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}

	node, err := w.repo.GetByID(jobCtx, nodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deletion raced ahead of the job; nothing to enrich.
			log.Info("node gone before extraction started")
		} else {
			log.Error("load node failed", "error", err)
		}
		return
	}
	if node.IsFolder || node.Path == nil {
		log.Error("extraction job for a non-file node")
		return
	}

	content, err := w.blobs.Get(jobCtx, *node.Path)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			// Stale record referencing deleted content.
			log.Error("node record exists but payload is missing", "locator", *node.Path)
		} else {
			log.Error("payload fetch failed", "locator", *node.Path, "error", err)
		}
		return
	}

	// Buffer the payload so each retry attempt sends the full content.
	data, err := io.ReadAll(content)
	content.Close()
	if err != nil {
		log.Error("payload read failed", "locator", *node.Path, "error", err)
		return
	}

	text, err := w.recognize(jobCtx, log, node.Name, data)
	if err != nil {
		log.Error("recognition failed, node unchanged", "error", err)
		return
	}

	if err := w.repo.SetExtractedText(jobCtx, node.ID, text); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Node was deleted mid-job; the conditional update is a no-op.
			log.Info("node deleted before extraction completed")
			return
		}
		log.Error("write extracted text failed", "error", err)
		return
	}

	log.Info("extraction complete", "chars", len(text))
}

// recognize calls the recognizer with bounded retry. With MaxRetries 0 the
// call is a single fire-and-forget attempt.
func (w *Worker) recognize(ctx context.Context, log *slog.Logger, filename string, data []byte) (string, error) {
	var text string
	var lastErr error

	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn("retrying recognition", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(Backoff(attempt - 1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, lastErr = w.client.Recognize(ctx, filename, bytes.NewReader(data))
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
	}

	return text, lastErr
}
