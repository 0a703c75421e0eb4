package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotTests executes View and Healthcheck tests
func (suite *StoreTestSuite) RunSnapshotTests(t *testing.T) {
	t.Run("ViewReadsTree", suite.testViewReadsTree)
	t.Run("ViewPropagatesError", suite.testViewPropagatesError)
	t.Run("ViewNotFound", suite.testViewNotFound)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *StoreTestSuite) testViewReadsTree(t *testing.T) {
	store := suite.NewStore()

	root := createDirectory(t, store, "root", nil)
	child := createDirectory(t, store, "child", metadata.ParentOf(root.ID))
	file := createFile(t, store, child.ID, "f.txt")

	err := store.View(context.Background(), func(r metadata.Reader) error {
		ctx := context.Background()

		dir, err := r.GetDirectory(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, "root", dir.Name)

		children, err := r.ListSubdirectories(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{child.ID}, directoryIDs(children))

		files, err := r.ListFiles(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{file.ID}, fileIDs(files))
		return nil
	})
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testViewPropagatesError(t *testing.T) {
	store := suite.NewStore()
	sentinel := errors.New("stop")

	err := store.View(context.Background(), func(metadata.Reader) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func (suite *StoreTestSuite) testViewNotFound(t *testing.T) {
	store := suite.NewStore()

	err := store.View(context.Background(), func(r metadata.Reader) error {
		_, err := r.GetDirectory(context.Background(), 99)
		return err
	})
	AssertErrorCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testHealthcheck(t *testing.T) {
	store := suite.NewStore()
	assert.NoError(t, store.Healthcheck(context.Background()))
}
