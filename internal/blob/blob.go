// Package blob abstracts the hosted file-storage service behind a narrow
// interface. The filesystem implementation stands in for it in development
// and tests.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store is the storage contract file ingestion depends on.
type Store interface {
	// Store persists the bytes and returns an opaque storage id.
	Store(ctx context.Context, data []byte) (string, error)

	// Delete removes a stored blob. Deleting an unknown id is an error.
	Delete(ctx context.Context, storageID string) error

	// URL returns a retrieval reference for a stored blob, or "" if none.
	URL(storageID string) string
}

// FSStore stores blobs as flat files under a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(storageID string) string {
	return filepath.Join(s.root, storageID)
}

// Store writes the blob under a fresh id.
func (s *FSStore) Store(ctx context.Context, data []byte) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return id, nil
}

// Delete removes the blob file.
func (s *FSStore) Delete(ctx context.Context, storageID string) error {
	if err := os.Remove(s.path(storageID)); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// URL returns a file path reference.
func (s *FSStore) URL(storageID string) string {
	if storageID == "" {
		return ""
	}
	return "file://" + s.path(storageID)
}
