// Package fs implements filesystem-based content storage for NestFS.
//
// This file contains the store type, constructor, path helpers and
// lifecycle management.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/nestfs/pkg/store/content"
)

// tempPrefix marks in-progress writes. Files with this prefix are never
// reported as content.
const tempPrefix = ".tmp-"

// FSContentStore stores each blob as one regular file named after its
// ContentID inside a single base directory.
//
// Writes go to a temporary file that is renamed into place, so readers
// never observe partially written content.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a filesystem content store rooted at basePath.
//
// The base directory is created with permissions 0755 if it doesn't exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Root directory for storing content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Directory creation failure or context cancellation
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if basePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath returns the full path for a content ID after validating that
// the ID cannot escape the base directory.
func (r *FSContentStore) getFilePath(id string) (string, error) {
	if err := content.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(r.basePath, id), nil
}

// Healthcheck verifies that the base directory is still present.
func (r *FSContentStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(r.basePath)
	if err != nil {
		return fmt.Errorf("content directory %s: %w", r.basePath, content.ErrUnavailable)
	}
	if !info.IsDir() {
		return fmt.Errorf("content path %s is not a directory: %w", r.basePath, content.ErrUnavailable)
	}
	return nil
}

// Close is a no-op: the store holds no open descriptors between calls.
func (r *FSContentStore) Close() error {
	return nil
}

var _ content.Store = (*FSContentStore)(nil)
