package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates a locator with no stored blob behind it.
var ErrNotFound = errors.New("blob not found")

// Store is the physical byte-storage backend. Nodes reference blobs through
// opaque locators assigned by Put; no blob is shared between two nodes.
//
// Delete is idempotent: deleting a missing locator is not an error, since a
// partially completed cascade may already have reclaimed it.
type Store interface {
	// Put stores the content and returns the assigned locator and byte count.
	Put(ctx context.Context, content io.Reader) (locator string, size int64, err error)

	// Get opens the blob for reading. Returns ErrNotFound if absent.
	Get(ctx context.Context, locator string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored at the locator.
	Exists(ctx context.Context, locator string) (bool, error)

	// Delete removes the blob. Missing locators are a no-op.
	Delete(ctx context.Context, locator string) error
}
