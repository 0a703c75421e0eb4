// Package testing provides a contract test suite for content.Store
// implementations.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/nestfs/pkg/store/content"
)

// StoreTestSuite tests the content.Store contract, not implementation
// details, so it runs unchanged against memory, filesystem and S3.
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &contenttesting.StoreTestSuite{
//	        NewStore: func() content.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func() content.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("GarbageCollection", suite.RunGCTests)
}

func testContext() context.Context {
	return context.Background()
}
