// Package memory implements an in-memory content store.
//
// Content is lost when the process exits. Intended for tests and for
// running the service without any on-disk state.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/marmos91/nestfs/pkg/store/content"
)

// MemoryContentStore keeps blobs in a lock-free concurrent map.
//
// Stored slices are never mutated after insertion: writes replace the
// entry with a private copy, and readers get their own reader over it.
type MemoryContentStore struct {
	blobs *xsync.Map[string, []byte]
}

// NewMemoryContentStore creates an empty in-memory content store.
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryContentStore{
		blobs: xsync.NewMap[string, []byte](),
	}, nil
}

func (s *MemoryContentStore) ReadContent(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, ok := s.blobs.Load(id)
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryContentStore) GetContentSize(ctx context.Context, id string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, ok := s.blobs.Load(id)
	if !ok {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return uint64(len(data)), nil
}

func (s *MemoryContentStore) ContentExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, ok := s.blobs.Load(id)
	return ok, nil
}

func (s *MemoryContentStore) WriteContent(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateID(id); err != nil {
		return err
	}

	s.blobs.Store(id, bytes.Clone(data))
	return nil
}

func (s *MemoryContentStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.blobs.Delete(id)
	return nil
}

// ListAllContent returns the stored IDs sorted, so results are stable.
func (s *MemoryContentStore) ListAllContent(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, s.blobs.Size())
	s.blobs.Range(func(id string, _ []byte) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryContentStore) DeleteBatch(ctx context.Context, ids []string) (map[string]error, error) {
	failures := make(map[string]error)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			for _, rest := range ids[i:] {
				failures[rest] = err
			}
			return failures, err
		}
		s.blobs.Delete(id)
	}
	return failures, nil
}

func (s *MemoryContentStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryContentStore) Close() error {
	s.blobs.Clear()
	return nil
}

var _ content.Store = (*MemoryContentStore)(nil)
