package testing

import (
	"context"
	"strings"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDirectoryTests executes all directory operation tests
func (suite *StoreTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("Create", suite.testCreateDirectory)
	t.Run("Get", suite.testGetDirectory)
	t.Run("ListSubdirectories", suite.testListSubdirectories)
	t.Run("ListDirectories", suite.testListDirectories)
	t.Run("Update", suite.testUpdateDirectory)
}

// ============================================================================
// Create Tests
// ============================================================================

func (suite *StoreTestSuite) testCreateDirectory(t *testing.T) {
	t.Run("Root", suite.testCreateDirectoryRoot)
	t.Run("Child", suite.testCreateDirectoryChild)
	t.Run("TrimsName", suite.testCreateDirectoryTrimsName)
	t.Run("ErrorEmptyName", suite.testCreateDirectoryErrorEmptyName)
	t.Run("ErrorNameTooLong", suite.testCreateDirectoryErrorNameTooLong)
	t.Run("ErrorParentNotFound", suite.testCreateDirectoryErrorParentNotFound)
	t.Run("IDsNeverReused", suite.testCreateDirectoryIDsNeverReused)
}

func (suite *StoreTestSuite) testCreateDirectoryRoot(t *testing.T) {
	store := suite.NewStore()

	dir, err := store.CreateDirectory(context.Background(), "A", nil)
	require.NoError(t, err)

	assert.NotZero(t, dir.ID)
	assert.Equal(t, "A", dir.Name)
	assert.Nil(t, dir.ParentID)
	assert.True(t, dir.IsRoot())
	assert.False(t, dir.CreatedAt.IsZero())
}

func (suite *StoreTestSuite) testCreateDirectoryChild(t *testing.T) {
	store := suite.NewStore()

	root := createDirectory(t, store, "A", nil)
	child, err := store.CreateDirectory(context.Background(), "B", metadata.ParentOf(root.ID))
	require.NoError(t, err)

	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
	assert.Greater(t, child.ID, root.ID)
}

func (suite *StoreTestSuite) testCreateDirectoryTrimsName(t *testing.T) {
	store := suite.NewStore()

	dir := createDirectory(t, store, "  docs \t", nil)
	assert.Equal(t, "docs", dir.Name)
}

func (suite *StoreTestSuite) testCreateDirectoryErrorEmptyName(t *testing.T) {
	store := suite.NewStore()

	_, err := store.CreateDirectory(context.Background(), "   ", nil)
	AssertErrorCode(t, metadata.ErrValidation, err)

	all, err := store.ListDirectories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func (suite *StoreTestSuite) testCreateDirectoryErrorNameTooLong(t *testing.T) {
	store := suite.NewStore()

	_, err := store.CreateDirectory(context.Background(), strings.Repeat("x", metadata.MaxNameLength+1), nil)
	AssertErrorCode(t, metadata.ErrValidation, err)
}

func (suite *StoreTestSuite) testCreateDirectoryErrorParentNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.CreateDirectory(context.Background(), "orphan", metadata.ParentOf(999))
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCreateDirectoryIDsNeverReused(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	first := createDirectory(t, store, "first", nil)
	require.NoError(t, store.DeleteDirectory(ctx, first.ID))

	second := createDirectory(t, store, "second", nil)
	assert.Greater(t, second.ID, first.ID)
}

// ============================================================================
// Get / List Tests
// ============================================================================

func (suite *StoreTestSuite) testGetDirectory(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	created := createDirectory(t, store, "A", nil)

	got, err := store.GetDirectory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "A", got.Name)
	assert.Nil(t, got.ParentID)

	_, err = store.GetDirectory(ctx, created.ID+100)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testListSubdirectories(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	root := createDirectory(t, store, "root", nil)
	other := createDirectory(t, store, "other", nil)
	c1 := createDirectory(t, store, "c1", metadata.ParentOf(root.ID))
	createDirectory(t, store, "elsewhere", metadata.ParentOf(other.ID))
	c2 := createDirectory(t, store, "c2", metadata.ParentOf(root.ID))
	c3 := createDirectory(t, store, "c3", metadata.ParentOf(root.ID))

	children, err := store.ListSubdirectories(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{c1.ID, c2.ID, c3.ID}, directoryIDs(children))

	empty, err := store.ListSubdirectories(ctx, c1.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.ListSubdirectories(ctx, 9999)
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testListDirectories(t *testing.T) {
	store := suite.NewStore()

	a := createDirectory(t, store, "a", nil)
	b := createDirectory(t, store, "b", metadata.ParentOf(a.ID))
	c := createDirectory(t, store, "c", nil)

	all, err := store.ListDirectories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, b.ID, c.ID}, directoryIDs(all))
}

// ============================================================================
// Update Tests
// ============================================================================

func (suite *StoreTestSuite) testUpdateDirectory(t *testing.T) {
	t.Run("Rename", suite.testUpdateDirectoryRename)
	t.Run("Reparent", suite.testUpdateDirectoryReparent)
	t.Run("MakeRoot", suite.testUpdateDirectoryMakeRoot)
	t.Run("ErrorSelfParent", suite.testUpdateDirectoryErrorSelfParent)
	t.Run("ErrorDescendantParent", suite.testUpdateDirectoryErrorDescendantParent)
	t.Run("ErrorParentNotFound", suite.testUpdateDirectoryErrorParentNotFound)
	t.Run("ErrorNotFound", suite.testUpdateDirectoryErrorNotFound)
	t.Run("ErrorEmptyName", suite.testUpdateDirectoryErrorEmptyName)
}

func (suite *StoreTestSuite) testUpdateDirectoryRename(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	root := createDirectory(t, store, "root", nil)
	dir := createDirectory(t, store, "old", metadata.ParentOf(root.ID))

	name := "new"
	updated, err := store.UpdateDirectory(ctx, dir.ID, metadata.DirectoryUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, root.ID, *updated.ParentID)

	got, err := store.GetDirectory(ctx, dir.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
}

func (suite *StoreTestSuite) testUpdateDirectoryReparent(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "a", nil)
	b := createDirectory(t, store, "b", nil)
	child := createDirectory(t, store, "child", metadata.ParentOf(a.ID))

	updated, err := store.UpdateDirectory(ctx, child.ID, metadata.DirectoryUpdate{
		Reparent: true,
		ParentID: metadata.ParentOf(b.ID),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, b.ID, *updated.ParentID)

	underA, err := store.ListSubdirectories(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, underA)

	underB, err := store.ListSubdirectories(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{child.ID}, directoryIDs(underB))
}

func (suite *StoreTestSuite) testUpdateDirectoryMakeRoot(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	a := createDirectory(t, store, "a", nil)
	child := createDirectory(t, store, "child", metadata.ParentOf(a.ID))

	updated, err := store.UpdateDirectory(ctx, child.ID, metadata.DirectoryUpdate{Reparent: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)

	underA, err := store.ListSubdirectories(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, underA)
}

func (suite *StoreTestSuite) testUpdateDirectoryErrorSelfParent(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dir := createDirectory(t, store, "loop", nil)

	_, err := store.UpdateDirectory(ctx, dir.ID, metadata.DirectoryUpdate{
		Reparent: true,
		ParentID: metadata.ParentOf(dir.ID),
	})
	AssertErrorCode(t, metadata.ErrCyclicReference, err)

	got, err := store.GetDirectory(ctx, dir.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func (suite *StoreTestSuite) testUpdateDirectoryErrorDescendantParent(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dirs, _ := buildChain(t, store, 3, 0)
	top := dirs[0]
	bottom := dirs[len(dirs)-1]

	name := "renamed"
	_, err := store.UpdateDirectory(ctx, top.ID, metadata.DirectoryUpdate{
		Name:     &name,
		Reparent: true,
		ParentID: metadata.ParentOf(bottom.ID),
	})
	AssertErrorCode(t, metadata.ErrCyclicReference, err)

	// Nothing changed, including the name
	got, err := store.GetDirectory(ctx, top.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "level", got.Name)
}

func (suite *StoreTestSuite) testUpdateDirectoryErrorParentNotFound(t *testing.T) {
	store := suite.NewStore()

	dir := createDirectory(t, store, "dir", nil)

	_, err := store.UpdateDirectory(context.Background(), dir.ID, metadata.DirectoryUpdate{
		Reparent: true,
		ParentID: metadata.ParentOf(dir.ID + 50),
	})
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testUpdateDirectoryErrorNotFound(t *testing.T) {
	store := suite.NewStore()

	name := "x"
	_, err := store.UpdateDirectory(context.Background(), 404, metadata.DirectoryUpdate{Name: &name})
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testUpdateDirectoryErrorEmptyName(t *testing.T) {
	store := suite.NewStore()

	dir := createDirectory(t, store, "dir", nil)

	empty := ""
	_, err := store.UpdateDirectory(context.Background(), dir.ID, metadata.DirectoryUpdate{Name: &empty})
	AssertErrorCode(t, metadata.ErrValidation, err)
}
