// Package content defines the blob store that holds file bytes.
//
// The metadata store owns names, hierarchy and ownership. The content store
// only maps an opaque ContentID to bytes. A File record references its blob
// through File.ContentID, and blobs no record references are removed by the
// garbage collector (pkg/gc).
package content

import (
	"context"
	"io"
)

// Store provides storage for file bytes keyed by ContentID.
//
// ContentIDs are opaque to the store. The service generates them as UUIDs,
// and every implementation accepts any ID that passes ValidateID.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same ContentID are last-write-wins.
type Store interface {
	// ReadContent returns a reader for the content. The caller must close it.
	//
	// Returns ErrContentNotFound if no content exists for id.
	ReadContent(ctx context.Context, id string) (io.ReadCloser, error)

	// GetContentSize returns the size of the content in bytes.
	//
	// Returns ErrContentNotFound if no content exists for id.
	GetContentSize(ctx context.Context, id string) (uint64, error)

	// ContentExists reports whether content exists for id. A missing blob
	// is not an error.
	ContentExists(ctx context.Context, id string) (bool, error)

	// WriteContent stores data under id, replacing any previous content.
	WriteContent(ctx context.Context, id string, data []byte) error

	// Delete removes the content. Deleting missing content succeeds.
	Delete(ctx context.Context, id string) error

	// ListAllContent returns the IDs of every blob in the store, referenced
	// or not. Used by the garbage collector.
	ListAllContent(ctx context.Context) ([]string, error)

	// DeleteBatch removes several blobs, best-effort.
	//
	// Returns:
	//   - map[string]error: failed deletions keyed by ID (empty = all succeeded)
	//   - error: only for context cancellation or catastrophic failures
	DeleteBatch(ctx context.Context, ids []string) (map[string]error, error)

	// Healthcheck verifies that the backend is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
