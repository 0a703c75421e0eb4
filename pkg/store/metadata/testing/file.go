package testing

import (
	"context"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFileTests executes all file operation tests
func (suite *StoreTestSuite) RunFileTests(t *testing.T) {
	t.Run("Create", suite.testCreateFile)
	t.Run("ErrorCreateDirectoryNotFound", suite.testCreateFileErrorDirectoryNotFound)
	t.Run("ErrorCreateEmptyName", suite.testCreateFileErrorEmptyName)
	t.Run("GetNotFound", suite.testGetFileNotFound)
	t.Run("ListFiles", suite.testListFiles)
	t.Run("ListAllFiles", suite.testListAllFiles)
	t.Run("Rename", suite.testUpdateFileRename)
	t.Run("Move", suite.testUpdateFileMove)
	t.Run("ErrorMoveDirectoryNotFound", suite.testUpdateFileErrorMoveDirectoryNotFound)
	t.Run("ErrorRenameEmptyName", suite.testUpdateFileErrorEmptyName)
	t.Run("Delete", suite.testDeleteFile)
	t.Run("GetAllContentIDs", suite.testGetAllContentIDs)
}

func (suite *StoreTestSuite) testCreateFile(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dir := createDirectory(t, store, "docs", nil)
	created, err := store.CreateFile(ctx, &metadata.File{
		Name:        "report.pdf",
		DirectoryID: dir.ID,
		ContentID:   "content-1",
		Size:        1024,
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := store.GetFile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Name)
	assert.Equal(t, dir.ID, got.DirectoryID)
	assert.Equal(t, "content-1", got.ContentID)
	assert.Equal(t, uint64(1024), got.Size)
	assert.Equal(t, "application/pdf", got.ContentType)
	assert.False(t, got.CreatedAt.IsZero())
}

func (suite *StoreTestSuite) testCreateFileErrorDirectoryNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.CreateFile(context.Background(), &metadata.File{
		Name:        "lost.txt",
		DirectoryID: 12345,
		ContentID:   "c",
	})
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCreateFileErrorEmptyName(t *testing.T) {
	store := suite.NewStore()

	dir := createDirectory(t, store, "docs", nil)
	_, err := store.CreateFile(context.Background(), &metadata.File{
		Name:        " ",
		DirectoryID: dir.ID,
		ContentID:   "c",
	})
	AssertErrorCode(t, metadata.ErrValidation, err)
}

func (suite *StoreTestSuite) testGetFileNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.GetFile(context.Background(), 77)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testListFiles(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "a", nil)
	b := createDirectory(t, store, "b", nil)
	f1 := createFile(t, store, a.ID, "1.txt")
	createFile(t, store, b.ID, "elsewhere.txt")
	f2 := createFile(t, store, a.ID, "2.txt")

	files, err := store.ListFiles(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f1.ID, f2.ID}, fileIDs(files))

	_, err = store.ListFiles(ctx, 9999)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testListAllFiles(t *testing.T) {
	store := suite.NewStore()

	a := createDirectory(t, store, "a", nil)
	b := createDirectory(t, store, "b", nil)
	f1 := createFile(t, store, b.ID, "1.txt")
	f2 := createFile(t, store, a.ID, "2.txt")

	files, err := store.ListAllFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{f1.ID, f2.ID}, fileIDs(files))
}

func (suite *StoreTestSuite) testUpdateFileRename(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dir := createDirectory(t, store, "a", nil)
	file := createFile(t, store, dir.ID, "old.txt")

	updated, err := store.UpdateFile(ctx, file.ID, metadata.FileUpdate{Name: "new.txt"})
	require.NoError(t, err)
	assert.Equal(t, "new.txt", updated.Name)
	assert.Equal(t, dir.ID, updated.DirectoryID)
	assert.Equal(t, file.ContentID, updated.ContentID)
}

func (suite *StoreTestSuite) testUpdateFileMove(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "a", nil)
	b := createDirectory(t, store, "b", nil)
	file := createFile(t, store, a.ID, "f.txt")

	updated, err := store.UpdateFile(ctx, file.ID, metadata.FileUpdate{
		Name:        "f.txt",
		DirectoryID: metadata.ParentOf(b.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.DirectoryID)

	inA, err := store.ListFiles(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, inA)

	inB, err := store.ListFiles(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{file.ID}, fileIDs(inB))
}

func (suite *StoreTestSuite) testUpdateFileErrorMoveDirectoryNotFound(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "a", nil)
	file := createFile(t, store, a.ID, "f.txt")

	_, err := store.UpdateFile(ctx, file.ID, metadata.FileUpdate{
		Name:        "renamed.txt",
		DirectoryID: metadata.ParentOf(a.ID + 100),
	})
	AssertErrorCode(t, metadata.ErrNotFound, err)

	// No mutation
	got, err := store.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "f.txt", got.Name)
	assert.Equal(t, a.ID, got.DirectoryID)
}

func (suite *StoreTestSuite) testUpdateFileErrorEmptyName(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "a", nil)
	file := createFile(t, store, a.ID, "f.txt")

	_, err := store.UpdateFile(ctx, file.ID, metadata.FileUpdate{Name: ""})
	AssertErrorCode(t, metadata.ErrValidation, err)

	_, err = store.UpdateFile(ctx, file.ID+10, metadata.FileUpdate{Name: "x"})
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteFile(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dir := createDirectory(t, store, "a", nil)
	keep := createFile(t, store, dir.ID, "keep.txt")
	drop := createFile(t, store, dir.ID, "drop.txt")

	contentID, err := store.DeleteFile(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, drop.ContentID, contentID)

	_, err = store.GetFile(ctx, drop.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)

	files, err := store.ListFiles(ctx, dir.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{keep.ID}, fileIDs(files))

	_, err = store.DeleteFile(ctx, drop.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testGetAllContentIDs(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	empty, err := store.GetAllContentIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	dir := createDirectory(t, store, "a", nil)
	f1 := createFile(t, store, dir.ID, "1")
	f2 := createFile(t, store, dir.ID, "2")

	ids, err := store.GetAllContentIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f1.ContentID, f2.ContentID}, ids)
}
