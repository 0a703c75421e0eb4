package badger

import (
	"context"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	metadatatesting "github.com/marmos91/nestfs/pkg/store/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a store with small buffers so many can be opened in
// one test run.
func newTestStore(t *testing.T, dir string) *BadgerMetadataStore {
	t.Helper()

	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithBlockCacheSize(1 << 20).
		WithIndexCacheSize(1 << 20)

	store, err := NewBadgerMetadataStore(context.Background(), BadgerMetadataStoreConfig{
		DBPath:        dir,
		BadgerOptions: &opts,
	})
	require.NoError(t, err)
	return store
}

// TestBadgerMetadataStore runs the complete metadata store test suite
// against the BadgerMetadataStore implementation.
func TestBadgerMetadataStore(t *testing.T) {
	// Suite tests run sequentially; close the previous store before
	// opening the next one.
	var current *BadgerMetadataStore
	t.Cleanup(func() {
		if current != nil {
			_ = current.Close()
		}
	})

	suite := &metadatatesting.StoreTestSuite{
		NewStore: func() metadata.Store {
			if current != nil {
				_ = current.Close()
			}
			current = newTestStore(t, t.TempDir())
			return current
		},
	}

	suite.Run(t)
}

func TestBadgerMetadataStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newTestStore(t, dir)
	root, err := store.CreateDirectory(ctx, "root", nil)
	require.NoError(t, err)
	child, err := store.CreateDirectory(ctx, "child", metadata.ParentOf(root.ID))
	require.NoError(t, err)
	file, err := store.CreateFile(ctx, &metadata.File{Name: "f.txt", DirectoryID: child.ID, ContentID: "blob"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := newTestStore(t, dir)
	defer func() { _ = reopened.Close() }()

	children, err := reopened.ListSubdirectories(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "child", children[0].Name)

	got, err := reopened.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "blob", got.ContentID)

	// IDs keep increasing after a restart
	next, err := reopened.CreateDirectory(ctx, "next", nil)
	require.NoError(t, err)
	assert.Greater(t, next.ID, child.ID)
}

func TestKeys_OrderedByID(t *testing.T) {
	assert.Less(t, string(keyChildDir(1, 2)), string(keyChildDir(1, 256)))
	assert.Less(t, string(keyDirectory(255)), string(keyDirectory(256)))
	assert.Equal(t, uint64(256), childIDFromKey(keyChildFile(7, 256)))
}
