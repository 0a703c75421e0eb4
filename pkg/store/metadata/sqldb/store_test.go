package sqldb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	metadatatesting "github.com/marmos91/nestfs/pkg/store/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSuite(t *testing.T, dialect Dialect, file string) {
	var current *SQLMetadataStore
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
			store, err := NewSQLMetadataStore(context.Background(), SQLMetadataStoreConfig{
				Dialect: dialect,
				Path:    filepath.Join(t.TempDir(), file),
			})
			require.NoError(t, err)
			current = store
			return store
		},
	}

	suite.Run(t)
}

// TestSQLiteMetadataStore runs the complete metadata store test suite
// against the SQLite dialect.
func TestSQLiteMetadataStore(t *testing.T) {
	runSuite(t, DialectSQLite, "metadata.db")
}

// TestDuckDBMetadataStore runs the complete metadata store test suite
// against the DuckDB dialect.
func TestDuckDBMetadataStore(t *testing.T) {
	runSuite(t, DialectDuckDB, "metadata.duckdb")
}

func TestSQLiteMetadataStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "metadata.db")

	store, err := NewSQLiteMetadataStore(ctx, path)
	require.NoError(t, err)
	root, err := store.CreateDirectory(ctx, "root", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteMetadataStore(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetDirectory(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "root", got.Name)
}

func TestSQLiteMetadataStore_SearchTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteMetadataStore(ctx, filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.CreateDirectory(ctx, "100%_done", nil)
	require.NoError(t, err)
	_, err = store.CreateDirectory(ctx, "1000 done", nil)
	require.NoError(t, err)

	found, err := store.SearchDirectories(ctx, "%_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100%_done", found[0].Name)
}

// linkCycle creates a -> b -> c with one file in c, then points a's parent at
// c, producing a cycle no API call can create.
func linkCycle(t *testing.T, store *SQLMetadataStore) (a *metadata.Directory, file *metadata.File) {
	t.Helper()
	ctx := context.Background()

	a, err := store.CreateDirectory(ctx, "a", nil)
	require.NoError(t, err)
	b, err := store.CreateDirectory(ctx, "b", metadata.ParentOf(a.ID))
	require.NoError(t, err)
	c, err := store.CreateDirectory(ctx, "c", metadata.ParentOf(b.ID))
	require.NoError(t, err)
	file, err = store.CreateFile(ctx, &metadata.File{Name: "f.txt", DirectoryID: c.ID, ContentID: "blob-c"})
	require.NoError(t, err)

	_, err = store.db.ExecContext(ctx, `UPDATE directories SET parent_id = ? WHERE id = ?`, int64(c.ID), int64(a.ID))
	require.NoError(t, err)
	return a, file
}

func TestSQLMetadataStore_SubtreeQueryStopsOnParentCycle(t *testing.T) {
	for _, tt := range []struct {
		dialect Dialect
		file    string
	}{
		{DialectSQLite, "metadata.db"},
		{DialectDuckDB, "metadata.duckdb"},
	} {
		t.Run(string(tt.dialect), func(t *testing.T) {
			ctx := context.Background()
			store, err := NewSQLMetadataStore(ctx, SQLMetadataStoreConfig{
				Dialect: tt.dialect,
				Path:    filepath.Join(t.TempDir(), tt.file),
			})
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			a, file := linkCycle(t, store)

			var ids []string
			err = store.withTx(ctx, func(tx *sql.Tx) error {
				var err error
				ids, err = queryStrings(ctx, tx, subtreeContentIDs, int64(a.ID))
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, []string{file.ContentID}, ids)
		})
	}
}

func TestDuckDBMetadataStore_RecursiveDeleteStopsOnParentCycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLMetadataStore(ctx, SQLMetadataStoreConfig{
		Dialect: DialectDuckDB,
		Path:    filepath.Join(t.TempDir(), "metadata.duckdb"),
	})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	a, file := linkCycle(t, store)

	contentIDs, err := store.DeleteDirectoryRecursive(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{file.ContentID}, contentIDs)

	dirs, err := store.ListDirectories(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirs)
}
