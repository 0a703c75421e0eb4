package testing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/store/content"
)

// RunBasicTests covers write, read, size, existence and delete.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("WriteThenRead", suite.testWriteThenRead)
	t.Run("EmptyContent", suite.testEmptyContent)
	t.Run("BinaryContentVerbatim", suite.testBinaryContentVerbatim)
	t.Run("OverwriteReplaces", suite.testOverwriteReplaces)
	t.Run("ReadMissing", suite.testReadMissing)
	t.Run("SizeMissing", suite.testSizeMissing)
	t.Run("DeleteRemoves", suite.testDeleteRemoves)
	t.Run("DeleteMissingSucceeds", suite.testDeleteMissingSucceeds)
	t.Run("CallerBufferNotRetained", suite.testCallerBufferNotRetained)
	t.Run("CancelledContext", suite.testCancelledContext)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *StoreTestSuite) testWriteThenRead(t *testing.T) {
	store := suite.NewStore()
	id := newID()

	mustWriteContent(t, store, id, []byte("hello, world"))

	assert.Equal(t, []byte("hello, world"), mustReadContent(t, store, id))

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), size)

	assertContentExists(t, store, id, true)
}

func (suite *StoreTestSuite) testEmptyContent(t *testing.T) {
	store := suite.NewStore()
	id := newID()

	mustWriteContent(t, store, id, []byte{})

	assert.Empty(t, mustReadContent(t, store, id))
	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func (suite *StoreTestSuite) testBinaryContentVerbatim(t *testing.T) {
	store := suite.NewStore()
	id := newID()

	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i * 31)
	}
	mustWriteContent(t, store, id, data)

	assert.True(t, bytes.Equal(data, mustReadContent(t, store, id)))
}

func (suite *StoreTestSuite) testOverwriteReplaces(t *testing.T) {
	store := suite.NewStore()
	id := newID()

	mustWriteContent(t, store, id, []byte("a much longer first version"))
	mustWriteContent(t, store, id, []byte("short"))

	assert.Equal(t, []byte("short"), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testReadMissing(t *testing.T) {
	store := suite.NewStore()

	_, err := store.ReadContent(testContext(), newID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	assertContentExists(t, store, newID(), false)
}

func (suite *StoreTestSuite) testSizeMissing(t *testing.T) {
	store := suite.NewStore()

	_, err := store.GetContentSize(testContext(), newID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testDeleteRemoves(t *testing.T) {
	store := suite.NewStore()
	id := newID()
	mustWriteContent(t, store, id, []byte("bye"))

	require.NoError(t, store.Delete(testContext(), id))

	assertContentExists(t, store, id, false)
	_, err := store.ReadContent(testContext(), id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testDeleteMissingSucceeds(t *testing.T) {
	store := suite.NewStore()

	assert.NoError(t, store.Delete(testContext(), newID()))
}

func (suite *StoreTestSuite) testCallerBufferNotRetained(t *testing.T) {
	store := suite.NewStore()
	id := newID()

	data := []byte("original")
	mustWriteContent(t, store, id, data)
	copy(data, "XXXXXXXX")

	assert.Equal(t, []byte("original"), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	store := suite.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.WriteContent(ctx, newID(), []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func (suite *StoreTestSuite) testHealthcheck(t *testing.T) {
	store := suite.NewStore()

	assert.NoError(t, store.Healthcheck(testContext()))
}
