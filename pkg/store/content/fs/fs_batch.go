package fs

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ListAllContent returns the name of every regular file in the base
// directory, skipping in-progress temporary files. os.ReadDir returns
// entries sorted by name.
func (r *FSContentStore) ListAllContent(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for i, entry := range entries {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

// DeleteBatch deletes sequentially. Partial failures are returned in the map.
func (r *FSContentStore) DeleteBatch(ctx context.Context, ids []string) (map[string]error, error) {
	failures := make(map[string]error)

	for i, id := range ids {
		if i%10 == 0 {
			if err := ctx.Err(); err != nil {
				for _, rest := range ids[i:] {
					failures[rest] = err
				}
				return failures, err
			}
		}

		if err := r.Delete(ctx, id); err != nil {
			failures[id] = err
		}
	}
	return failures, nil
}
