package testing

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/store/content"
)

func newID() string {
	return uuid.NewString()
}

func mustWriteContent(t *testing.T, store content.Store, id string, data []byte) {
	t.Helper()
	require.NoError(t, store.WriteContent(testContext(), id, data), "WriteContent should succeed")
}

func mustReadContent(t *testing.T, store content.Store, id string) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), id)
	require.NoError(t, err, "ReadContent should succeed")
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "Reading content should succeed")
	return data
}

func assertContentExists(t *testing.T, store content.Store, id string, expected bool) {
	t.Helper()
	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err, "ContentExists should not error")
	assert.Equal(t, expected, exists, "Content existence mismatch")
}
