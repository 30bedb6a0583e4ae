package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSStore keeps blobs as objects in a Google Cloud Storage bucket.
// Locators are "uploads/<uuid>" object names.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
	}
}

var _ Store = (*GCSStore)(nil)

func (s *GCSStore) Put(ctx context.Context, content io.Reader) (string, int64, error) {
	locator := "uploads/" + uuid.NewString()

	w := s.client.Bucket(s.bucket).Object(locator).NewWriter(ctx)
	size, err := io.Copy(w, content)
	if err != nil {
		w.Close()
		return "", 0, fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("finalize object: %w", err)
	}

	return locator, size, nil
}

func (s *GCSStore) Get(ctx context.Context, locator string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(locator).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("blob %s: %w", locator, ErrNotFound)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return r, nil
}

func (s *GCSStore) Exists(ctx context.Context, locator string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(locator).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

func (s *GCSStore) Delete(ctx context.Context, locator string) error {
	err := s.client.Bucket(s.bucket).Object(locator).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
