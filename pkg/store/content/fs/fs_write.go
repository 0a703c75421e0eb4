package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// WriteContent writes data to a temporary file in the base directory and
// renames it over the final path.
func (r *FSContentStore) WriteContent(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.getFilePath(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.basePath, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close content file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move content into place: %w", err)
	}
	return nil
}

// Delete removes the blob file. A missing file is not an error.
func (r *FSContentStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.getFilePath(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}
