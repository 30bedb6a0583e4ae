package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore keeps blobs as flat files under a root directory. Locators are
// "uploads/<uuid>" relative paths, resolved strictly inside the root.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "uploads"), 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

var _ Store = (*DiskStore)(nil)

func (s *DiskStore) Put(ctx context.Context, content io.Reader) (string, int64, error) {
	locator := filepath.Join("uploads", uuid.NewString())

	f, err := os.Create(filepath.Join(s.root, locator))
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	size, err := io.Copy(f, content)
	if err != nil {
		f.Close()
		os.Remove(filepath.Join(s.root, locator))
		return "", 0, fmt.Errorf("write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(filepath.Join(s.root, locator))
		return "", 0, fmt.Errorf("close blob: %w", err)
	}

	return locator, size, nil
}

func (s *DiskStore) Get(ctx context.Context, locator string) (io.ReadCloser, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", locator, ErrNotFound)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}

	return f, nil
}

func (s *DiskStore) Exists(ctx context.Context, locator string) (bool, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob: %w", err)
	}

	return true, nil
}

func (s *DiskStore) Delete(ctx context.Context, locator string) error {
	path, err := s.resolve(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}

// resolve rejects locators that escape the root directory.
func (s *DiskStore) resolve(locator string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(locator))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return path, nil
}
