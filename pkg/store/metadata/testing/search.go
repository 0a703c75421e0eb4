package testing

import (
	"context"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSearchTests executes name search tests
func (suite *StoreTestSuite) RunSearchTests(t *testing.T) {
	t.Run("Directories", suite.testSearchDirectories)
	t.Run("Files", suite.testSearchFiles)
	t.Run("UnicodeCaseFolding", suite.testSearchUnicodeCaseFolding)
	t.Run("ErrorEmptyQuery", suite.testSearchErrorEmptyQuery)
}

func (suite *StoreTestSuite) testSearchDirectories(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	photos := createDirectory(t, store, "Photos", nil)
	createDirectory(t, store, "Music", nil)
	holiday := createDirectory(t, store, "holiday-PHOTOS", metadata.ParentOf(photos.ID))

	found, err := store.SearchDirectories(ctx, "photo")
	require.NoError(t, err)
	assert.Equal(t, []uint64{photos.ID, holiday.ID}, directoryIDs(found))

	none, err := store.SearchDirectories(ctx, "video")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func (suite *StoreTestSuite) testSearchFiles(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	dir := createDirectory(t, store, "docs", nil)
	report := createFile(t, store, dir.ID, "Annual-Report.PDF")
	createFile(t, store, dir.ID, "notes.txt")
	draft := createFile(t, store, dir.ID, "report-draft.pdf")

	found, err := store.SearchFiles(ctx, "REPORT")
	require.NoError(t, err)
	assert.Equal(t, []uint64{report.ID, draft.ID}, fileIDs(found))

	// Search operates on names, not content or directory names
	none, err := store.SearchFiles(ctx, "docs")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func (suite *StoreTestSuite) testSearchUnicodeCaseFolding(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	ecole := createDirectory(t, store, "ÉCOLE", nil)
	createDirectory(t, store, "Straße", nil)
	primaire := createDirectory(t, store, "école-primaire", nil)

	found, err := store.SearchDirectories(ctx, "école")
	require.NoError(t, err)
	assert.Equal(t, []uint64{ecole.ID, primaire.ID}, directoryIDs(found))

	found, err = store.SearchDirectories(ctx, "STRASSE")
	require.NoError(t, err)
	assert.Empty(t, found, "folding is per rune, ß does not expand")

	resume := createFile(t, store, ecole.ID, "Résumé.PDF")
	createFile(t, store, ecole.ID, "resume.txt")

	files, err := store.SearchFiles(ctx, "RÉSUMÉ")
	require.NoError(t, err)
	assert.Equal(t, []uint64{resume.ID}, fileIDs(files))
}

func (suite *StoreTestSuite) testSearchErrorEmptyQuery(t *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	_, err := store.SearchDirectories(ctx, "")
	AssertErrorCode(t, metadata.ErrValidation, err)

	_, err = store.SearchFiles(ctx, "")
	AssertErrorCode(t, metadata.ErrValidation, err)
}
