package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/metrics"
	"github.com/marmos91/nestfs/pkg/store/content"
	contentmemory "github.com/marmos91/nestfs/pkg/store/content/memory"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	metadatamemory "github.com/marmos91/nestfs/pkg/store/metadata/memory"
	metadatatesting "github.com/marmos91/nestfs/pkg/store/metadata/testing"
	"github.com/marmos91/nestfs/pkg/tree"
)

func newTestService(t *testing.T, opts Options) (*Service, *metadatamemory.MemoryMetadataStore, *contentmemory.MemoryContentStore) {
	t.Helper()
	meta := metadatamemory.NewMemoryMetadataStore()
	blobs, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	return New(meta, blobs, opts), meta, blobs
}

func upload(t *testing.T, svc *Service, dirID uint64, name, body string) *metadata.File {
	t.Helper()
	file, err := svc.UploadFile(context.Background(), UploadRequest{
		DirectoryID: dirID,
		Name:        name,
		Body:        strings.NewReader(body),
	})
	require.NoError(t, err)
	return file
}

func listBlobs(t *testing.T, store content.Store) []string {
	t.Helper()
	ids, err := store.ListAllContent(context.Background())
	require.NoError(t, err)
	return ids
}

// depthOf returns how many levels of subdirectories a node expands.
func depthOf(n tree.Node) int {
	deepest := 0
	for _, child := range n.Subdirectories {
		deepest = max(deepest, 1+depthOf(child))
	}
	return deepest
}

func TestService_StrictThenRecursiveDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs := newTestService(t, Options{})

	a, err := svc.CreateDirectory(ctx, "A", nil)
	require.NoError(t, err)
	b, err := svc.CreateDirectory(ctx, "B", &a.ID)
	require.NoError(t, err)
	f := upload(t, svc, b.ID, "f.txt", "hello")

	err = svc.DeleteDirectory(ctx, a.ID)
	metadatatesting.AssertErrorCode(t, metadata.ErrNotEmpty, err)
	_, err = svc.GetFile(ctx, f.ID)
	require.NoError(t, err, "strict delete must not remove anything")

	require.NoError(t, svc.DeleteDirectoryRecursive(ctx, a.ID))

	_, err = svc.GetDirectory(ctx, a.ID)
	metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
	_, err = svc.GetDirectory(ctx, b.ID)
	metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
	_, err = svc.GetFile(ctx, f.ID)
	metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
	assert.Empty(t, listBlobs(t, blobs), "blobs of deleted files are removed")
}

func TestService_UploadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("StoresBlobAndSniffsType", func(t *testing.T) {
		svc, _, blobs := newTestService(t, Options{})
		dir, err := svc.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)

		file := upload(t, svc, dir.ID, "  notes.txt  ", "plain text content")

		assert.Equal(t, "notes.txt", file.Name)
		assert.Equal(t, dir.ID, file.DirectoryID)
		assert.Equal(t, uint64(18), file.Size)
		assert.Equal(t, "text/plain; charset=utf-8", file.ContentType)
		assert.Equal(t, []string{file.ContentID}, listBlobs(t, blobs))
	})

	t.Run("KeepsDeclaredType", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})
		dir, err := svc.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)

		file, err := svc.UploadFile(ctx, UploadRequest{
			DirectoryID: dir.ID,
			Name:        "data.json",
			ContentType: "application/json",
			Body:        strings.NewReader(`{"a":1}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", file.ContentType)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		svc, _, blobs := newTestService(t, Options{})
		dir, err := svc.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)

		_, err = svc.UploadFile(ctx, UploadRequest{DirectoryID: dir.ID, Name: "   ", Body: strings.NewReader("x")})
		metadatatesting.AssertErrorCode(t, metadata.ErrValidation, err)
		assert.Empty(t, listBlobs(t, blobs))
	})

	t.Run("UnknownDirectory", func(t *testing.T) {
		svc, _, blobs := newTestService(t, Options{})

		_, err := svc.UploadFile(ctx, UploadRequest{DirectoryID: 42, Name: "f", Body: strings.NewReader("x")})
		metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
		assert.Empty(t, listBlobs(t, blobs))
	})

	t.Run("TooLarge", func(t *testing.T) {
		svc, _, blobs := newTestService(t, Options{MaxUploadBytes: 4})
		dir, err := svc.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)

		_, err = svc.UploadFile(ctx, UploadRequest{DirectoryID: dir.ID, Name: "f", Body: strings.NewReader("12345")})
		assert.ErrorIs(t, err, ErrUploadTooLarge)
		assert.Empty(t, listBlobs(t, blobs))

		file := upload(t, svc, dir.ID, "g", "1234")
		assert.Equal(t, uint64(4), file.Size, "exactly the limit is accepted")
	})

	t.Run("RecordFailureRemovesBlob", func(t *testing.T) {
		meta := metadatamemory.NewMemoryMetadataStore()
		blobs, err := contentmemory.NewMemoryContentStore(ctx)
		require.NoError(t, err)
		svc := New(failingCreateFile{Store: meta}, blobs, Options{})

		dir, err := meta.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)

		_, err = svc.UploadFile(ctx, UploadRequest{DirectoryID: dir.ID, Name: "f", Body: strings.NewReader("x")})
		require.Error(t, err)
		assert.Empty(t, listBlobs(t, blobs))
	})
}

func TestService_OpenFile(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs := newTestService(t, Options{})
	dir, err := svc.CreateDirectory(ctx, "docs", nil)
	require.NoError(t, err)
	file := upload(t, svc, dir.ID, "f.txt", "payload")

	got, reader, err := svc.OpenFile(ctx, file.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, "payload", string(data))

	t.Run("MissingBlob", func(t *testing.T) {
		require.NoError(t, blobs.Delete(ctx, file.ContentID))

		_, _, err := svc.OpenFile(ctx, file.ID)
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("MissingRecord", func(t *testing.T) {
		_, _, err := svc.OpenFile(ctx, 999)
		metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
	})
}

func TestService_DeleteFile(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesBlob", func(t *testing.T) {
		svc, _, blobs := newTestService(t, Options{})
		dir, err := svc.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)
		file := upload(t, svc, dir.ID, "f.txt", "x")

		require.NoError(t, svc.DeleteFile(ctx, file.ID))
		assert.Empty(t, listBlobs(t, blobs))

		err = svc.DeleteFile(ctx, file.ID)
		metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
	})

	t.Run("BlobFailureIsNotSurfaced", func(t *testing.T) {
		meta := metadatamemory.NewMemoryMetadataStore()
		inner, err := contentmemory.NewMemoryContentStore(ctx)
		require.NoError(t, err)
		svc := New(meta, failingDeleteBatch{Store: inner}, Options{})

		dir, err := svc.CreateDirectory(ctx, "docs", nil)
		require.NoError(t, err)
		file := upload(t, svc, dir.ID, "f.txt", "x")

		require.NoError(t, svc.DeleteFile(ctx, file.ID))
		_, err = svc.GetFile(ctx, file.ID)
		metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
	})
}

func TestService_DirectoryTree(t *testing.T) {
	ctx := context.Background()
	svc, meta, _ := newTestService(t, Options{DefaultMaxDepth: 2, MaxDepthLimit: 4})

	root, err := meta.CreateDirectory(ctx, "level", nil)
	require.NoError(t, err)
	parent := root.ID
	for i := 0; i < 6; i++ {
		dir, err := meta.CreateDirectory(ctx, "level", &parent)
		require.NoError(t, err)
		parent = dir.ID
	}

	node, err := svc.DirectoryTree(ctx, root.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, depthOf(*node), "default depth")

	requested := 10
	node, err = svc.DirectoryTree(ctx, root.ID, &requested)
	require.NoError(t, err)
	assert.Equal(t, 4, depthOf(*node), "capped at the limit")

	zero := 0
	node, err = svc.DirectoryTree(ctx, root.ID, &zero)
	require.NoError(t, err)
	assert.Empty(t, node.Subdirectories)

	_, err = svc.DirectoryTree(ctx, 999, nil)
	metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)
}

func TestService_ListDirectoriesAndSubdirectory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	a, err := svc.CreateDirectory(ctx, "A", nil)
	require.NoError(t, err)

	node, err := svc.CreateSubdirectory(ctx, a.ID, "B")
	require.NoError(t, err)
	require.NotNil(t, node.Parent)
	assert.Equal(t, a.ID, *node.Parent)
	assert.Equal(t, "B", node.Name)
	assert.Empty(t, node.Subdirectories)
	assert.Empty(t, node.Files)

	_, err = svc.CreateSubdirectory(ctx, 999, "C")
	metadatatesting.AssertErrorCode(t, metadata.ErrNotFound, err)

	nodes, err := svc.ListDirectories(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "A", nodes[0].Name)
	require.Len(t, nodes[0].Subdirectories, 1)
	assert.Equal(t, "B", nodes[0].Subdirectories[0].Name)
	assert.Equal(t, "B", nodes[1].Name)
}

func TestService_UpdateDirectoryRejectsCycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{})

	a, err := svc.CreateDirectory(ctx, "A", nil)
	require.NoError(t, err)
	b, err := svc.CreateDirectory(ctx, "B", &a.ID)
	require.NoError(t, err)

	_, err = svc.UpdateDirectory(ctx, a.ID, metadata.DirectoryUpdate{Reparent: true, ParentID: &b.ID})
	metadatatesting.AssertErrorCode(t, metadata.ErrCyclicReference, err)

	got, err := svc.GetDirectory(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func TestService_Healthcheck(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	assert.NoError(t, svc.Healthcheck(context.Background()))
}

// failingCreateFile is a metadata store whose CreateFile always fails.
type failingCreateFile struct {
	metadata.Store
}

func (failingCreateFile) CreateFile(context.Context, *metadata.File) (*metadata.File, error) {
	return nil, errors.New("create file failed")
}

// failingDeleteBatch is a content store whose batch deletes always fail.
type failingDeleteBatch struct {
	content.Store
}

func (failingDeleteBatch) DeleteBatch(context.Context, []string) (map[string]error, error) {
	return nil, errors.New("storage offline")
}

type recordedOp struct {
	name string
	err  error
}

type recordingMetrics struct {
	metrics.StoreMetrics
	ops []recordedOp
}

func (m *recordingMetrics) RecordMetadataOperation(operation string, _ time.Duration, err error) {
	m.ops = append(m.ops, recordedOp{name: operation, err: err})
}

func (m *recordingMetrics) last() recordedOp {
	return m.ops[len(m.ops)-1]
}

func TestService_ReadOperations(t *testing.T) {
	rec := &recordingMetrics{StoreMetrics: metrics.NewNoopStoreMetrics()}
	svc, _, _ := newTestService(t, Options{Metrics: rec})
	ctx := context.Background()

	root, err := svc.CreateDirectory(ctx, "Archive", nil)
	require.NoError(t, err)
	child, err := svc.CreateDirectory(ctx, "2024", metadata.ParentOf(root.ID))
	require.NoError(t, err)
	file := upload(t, svc, root.ID, "ledger.csv", "a,b\n")

	dir, err := svc.GetDirectory(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "Archive", dir.Name)
	assert.Equal(t, recordedOp{name: "GetDirectory"}, rec.last())

	subdirs, err := svc.ListSubdirectories(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{child.ID}, []uint64{subdirs[0].ID})
	assert.Equal(t, "ListSubdirectories", rec.last().name)

	files, err := svc.ListFiles(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, file.ID, files[0].ID)
	assert.Equal(t, "ListFiles", rec.last().name)

	found, err := svc.SearchDirectories(ctx, "arch")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "SearchDirectories", rec.last().name)

	got, err := svc.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "ledger.csv", got.Name)
	assert.Equal(t, "GetFile", rec.last().name)

	all, err := svc.ListAllFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "ListAllFiles", rec.last().name)

	matches, err := svc.SearchFiles(ctx, "LEDGER")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "SearchFiles", rec.last().name)

	_, err = svc.GetFile(ctx, 9999)
	require.Error(t, err)
	assert.Equal(t, "GetFile", rec.last().name)
	assert.True(t, metadata.IsNotFound(rec.last().err))
}
