package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a map-backed Store used by tests and the memory storage
// driver.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Put(ctx context.Context, content io.Reader) (string, int64, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", 0, fmt.Errorf("read blob: %w", err)
	}

	locator := "uploads/" + uuid.NewString()

	s.mu.Lock()
	s.blobs[locator] = data
	s.mu.Unlock()

	return locator, int64(len(data)), nil
}

func (s *MemoryStore) Get(ctx context.Context, locator string) (io.ReadCloser, error) {
	s.mu.Lock()
	data, ok := s.blobs[locator]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("blob %s: %w", locator, ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Exists(ctx context.Context, locator string) (bool, error) {
	s.mu.Lock()
	_, ok := s.blobs[locator]
	s.mu.Unlock()
	return ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, locator string) error {
	s.mu.Lock()
	delete(s.blobs, locator)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored blobs. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
