package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode verifies that err is a StoreError with the expected code.
func AssertErrorCode(t *testing.T, expected metadata.ErrorCode, err error, msgAndArgs ...any) bool {
	if err == nil {
		return assert.Fail(t, "Expected an error but got nil", msgAndArgs...)
	}

	var storeErr *metadata.StoreError
	if errors.As(err, &storeErr) {
		return assert.Equal(t, expected, storeErr.Code, msgAndArgs...)
	}

	return assert.Fail(t, "Expected a StoreError", "got %T: %v", err, err)
}

func createDirectory(t *testing.T, store metadata.Store, name string, parent *uint64) *metadata.Directory {
	t.Helper()
	dir, err := store.CreateDirectory(context.Background(), name, parent)
	require.NoError(t, err)
	return dir
}

func createFile(t *testing.T, store metadata.Store, dirID uint64, name string) *metadata.File {
	t.Helper()
	file, err := store.CreateFile(context.Background(), &metadata.File{
		Name:        name,
		DirectoryID: dirID,
		ContentID:   uuid.NewString(),
		Size:        42,
		ContentType: "text/plain; charset=utf-8",
	})
	require.NoError(t, err)
	return file
}

func directoryIDs(dirs []*metadata.Directory) []uint64 {
	ids := make([]uint64, 0, len(dirs))
	for _, d := range dirs {
		ids = append(ids, d.ID)
	}
	return ids
}

func fileIDs(files []*metadata.File) []uint64 {
	ids := make([]uint64, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}

// buildChain creates depth+1 nested directories under a new root, with
// filesPerDir files in each, and returns every directory and file created.
func buildChain(t *testing.T, store metadata.Store, depth, filesPerDir int) ([]*metadata.Directory, []*metadata.File) {
	t.Helper()

	var dirs []*metadata.Directory
	var files []*metadata.File

	var parent *uint64
	for level := 0; level <= depth; level++ {
		dir := createDirectory(t, store, "level", parent)
		dirs = append(dirs, dir)
		for i := 0; i < filesPerDir; i++ {
			files = append(files, createFile(t, store, dir.ID, "file.bin"))
		}
		parent = metadata.ParentOf(dir.ID)
	}
	return dirs, files
}
