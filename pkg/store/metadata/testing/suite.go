package testing

import (
	"testing"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// StoreTestSuite is a comprehensive test suite for metadata.Store
// implementations. It tests the interface contract, not implementation
// details, so the same suite runs against memory, badger and SQL stores.
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh store instance
	// for each test. This ensures test isolation.
	NewStore func() metadata.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Directory", suite.RunDirectoryTests)
	test.Run("File", suite.RunFileTests)
	test.Run("Delete", suite.RunDeleteTests)
	test.Run("Search", suite.RunSearchTests)
	test.Run("Snapshot", suite.RunSnapshotTests)
}
