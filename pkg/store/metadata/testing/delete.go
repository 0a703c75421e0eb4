package testing

import (
	"context"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDeleteTests executes strict and recursive delete tests
func (suite *StoreTestSuite) RunDeleteTests(t *testing.T) {
	t.Run("StrictEmpty", suite.testDeleteDirectoryStrictEmpty)
	t.Run("StrictErrorHasSubdirectory", suite.testDeleteDirectoryStrictErrorHasSubdirectory)
	t.Run("StrictErrorHasFile", suite.testDeleteDirectoryStrictErrorHasFile)
	t.Run("StrictErrorNotFound", suite.testDeleteDirectoryStrictErrorNotFound)
	t.Run("Recursive", suite.testDeleteDirectoryRecursive)
	t.Run("RecursiveBranching", suite.testDeleteDirectoryRecursiveBranching)
	t.Run("RecursiveErrorNotFound", suite.testDeleteDirectoryRecursiveErrorNotFound)
	t.Run("StrictThenRecursive", suite.testDeleteStrictThenRecursive)
}

func (suite *StoreTestSuite) testDeleteDirectoryStrictEmpty(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	root := createDirectory(t, store, "root", nil)
	leaf := createDirectory(t, store, "leaf", metadata.ParentOf(root.ID))

	require.NoError(t, store.DeleteDirectory(ctx, leaf.ID))

	_, err := store.GetDirectory(ctx, leaf.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)

	children, err := store.ListSubdirectories(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func (suite *StoreTestSuite) testDeleteDirectoryStrictErrorHasSubdirectory(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	root := createDirectory(t, store, "root", nil)
	child := createDirectory(t, store, "child", metadata.ParentOf(root.ID))

	err := store.DeleteDirectory(ctx, root.ID)
	AssertErrorCode(t, metadata.ErrNotEmpty, err)

	// Nothing was deleted
	_, err = store.GetDirectory(ctx, root.ID)
	require.NoError(t, err)
	_, err = store.GetDirectory(ctx, child.ID)
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testDeleteDirectoryStrictErrorHasFile(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dir := createDirectory(t, store, "dir", nil)
	file := createFile(t, store, dir.ID, "f.txt")

	err := store.DeleteDirectory(ctx, dir.ID)
	AssertErrorCode(t, metadata.ErrNotEmpty, err)

	_, err = store.GetFile(ctx, file.ID)
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testDeleteDirectoryStrictErrorNotFound(t *testing.T) {
	store := suite.NewStore()

	err := store.DeleteDirectory(context.Background(), 31337)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteDirectoryRecursive(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	// Depth K=4 subtree with M=2 files per level, plus an unrelated tree
	dirs, files := buildChain(t, store, 4, 2)
	bystander := createDirectory(t, store, "bystander", nil)
	bystanderFile := createFile(t, store, bystander.ID, "keep.txt")

	contentIDs, err := store.DeleteDirectoryRecursive(ctx, dirs[0].ID)
	require.NoError(t, err)

	expected := make([]string, 0, len(files))
	for _, f := range files {
		expected = append(expected, f.ContentID)
	}
	assert.ElementsMatch(t, expected, contentIDs)

	for _, d := range dirs {
		_, err := store.GetDirectory(ctx, d.ID)
		AssertErrorCode(t, metadata.ErrNotFound, err, "directory %d should be gone", d.ID)
	}
	for _, f := range files {
		_, err := store.GetFile(ctx, f.ID)
		AssertErrorCode(t, metadata.ErrNotFound, err, "file %d should be gone", f.ID)
	}

	_, err = store.GetDirectory(ctx, bystander.ID)
	require.NoError(t, err)
	_, err = store.GetFile(ctx, bystanderFile.ID)
	require.NoError(t, err)

	remaining, err := store.GetAllContentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{bystanderFile.ContentID}, remaining)
}

func (suite *StoreTestSuite) testDeleteDirectoryRecursiveBranching(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	root := createDirectory(t, store, "root", nil)
	left := createDirectory(t, store, "left", metadata.ParentOf(root.ID))
	right := createDirectory(t, store, "right", metadata.ParentOf(root.ID))
	leftLeaf := createDirectory(t, store, "left-leaf", metadata.ParentOf(left.ID))
	createFile(t, store, right.ID, "r.txt")
	createFile(t, store, leftLeaf.ID, "ll.txt")

	// Deleting a middle node leaves its parent and sibling alone
	contentIDs, err := store.DeleteDirectoryRecursive(ctx, left.ID)
	require.NoError(t, err)
	assert.Len(t, contentIDs, 1)

	children, err := store.ListSubdirectories(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{right.ID}, directoryIDs(children))

	_, err = store.GetDirectory(ctx, leftLeaf.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)

	rightFiles, err := store.ListFiles(ctx, right.ID)
	require.NoError(t, err)
	assert.Len(t, rightFiles, 1)
}

func (suite *StoreTestSuite) testDeleteDirectoryRecursiveErrorNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.DeleteDirectoryRecursive(context.Background(), 4242)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

// testDeleteStrictThenRecursive walks the canonical example: A contains B,
// B contains f.txt; a strict delete of A fails, a recursive one removes all.
func (suite *StoreTestSuite) testDeleteStrictThenRecursive(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "A", nil)
	b := createDirectory(t, store, "B", metadata.ParentOf(a.ID))
	f := createFile(t, store, b.ID, "f.txt")

	AssertErrorCode(t, metadata.ErrNotEmpty, store.DeleteDirectory(ctx, a.ID))

	contentIDs, err := store.DeleteDirectoryRecursive(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ContentID}, contentIDs)

	_, err = store.GetDirectory(ctx, a.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)
	_, err = store.GetDirectory(ctx, b.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)
	_, err = store.GetFile(ctx, f.ID)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}
