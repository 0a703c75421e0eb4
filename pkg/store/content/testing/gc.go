package testing

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGCTests covers the listing and batch delete used by garbage collection.
func (suite *StoreTestSuite) RunGCTests(t *testing.T) {
	t.Run("ListAllContent", suite.testListAllContent)
	t.Run("ListEmpty", suite.testListEmpty)
	t.Run("DeleteBatch", suite.testDeleteBatch)
}

func (suite *StoreTestSuite) testListAllContent(t *testing.T) {
	store := suite.NewStore()

	ids := []string{newID(), newID(), newID()}
	for _, id := range ids {
		mustWriteContent(t, store, id, []byte(id))
	}

	listed, err := store.ListAllContent(testContext())
	require.NoError(t, err)

	slices.Sort(ids)
	slices.Sort(listed)
	assert.Equal(t, ids, listed)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.NewStore()

	listed, err := store.ListAllContent(testContext())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func (suite *StoreTestSuite) testDeleteBatch(t *testing.T) {
	store := suite.NewStore()

	keep := newID()
	drop := []string{newID(), newID()}
	mustWriteContent(t, store, keep, []byte("keep"))
	for _, id := range drop {
		mustWriteContent(t, store, id, []byte("drop"))
	}

	// A missing ID in the batch is not a failure.
	failures, err := store.DeleteBatch(testContext(), append(drop, newID()))
	require.NoError(t, err)
	assert.Empty(t, failures)

	listed, err := store.ListAllContent(testContext())
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, listed)
}
