package metadata

import (
	"context"
)

// ============================================================================
// Store Interface
// ============================================================================

// Reader is the read-only view of a metadata store.
//
// It is what the tree serializer walks. Store embeds it for single reads and
// hands one to View callbacks for reads that must observe one consistent
// snapshot.
type Reader interface {
	// GetDirectory returns the directory with the given ID.
	//
	// Returns:
	//   - *Directory: a copy of the stored record
	//   - error: ErrNotFound if the directory does not exist
	GetDirectory(ctx context.Context, id uint64) (*Directory, error)

	// ListSubdirectories returns the direct children of a directory in
	// ascending ID order.
	//
	// Returns ErrNotFound if the parent directory does not exist.
	ListSubdirectories(ctx context.Context, id uint64) ([]*Directory, error)

	// ListFiles returns the files owned by a directory in ascending ID order.
	//
	// Returns ErrNotFound if the directory does not exist.
	ListFiles(ctx context.Context, directoryID uint64) ([]*File, error)
}

// Store persists directories and files and enforces the tree invariants.
//
// Every check-then-act operation (parent validation, strict delete, cascade
// delete, file move) runs inside a single store transaction, so no partial
// state is ever visible to other callers.
//
// Business failures are returned as *StoreError. Infrastructure failures are
// wrapped with fmt.Errorf and returned unchanged; stores never retry.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	Reader

	// View runs fn against a read snapshot of the store. fn must only use
	// the Reader it is given and must not call back into the Store.
	View(ctx context.Context, fn func(r Reader) error) error

	// ========================================================================
	// Directory Operations
	// ========================================================================

	// CreateDirectory creates a directory under parentID (nil for a root).
	//
	// Returns:
	//   - *Directory: the persisted record with its assigned ID
	//   - error: ErrValidation for a bad name, ErrNotFound if the parent
	//     does not exist
	CreateDirectory(ctx context.Context, name string, parentID *uint64) (*Directory, error)

	// UpdateDirectory renames and/or reparents a directory.
	//
	// A reparent walks the ancestor chain of the new parent inside the write
	// transaction and fails with ErrCyclicReference if the directory itself is
	// found (including the directory being its own parent).
	UpdateDirectory(ctx context.Context, id uint64, update DirectoryUpdate) (*Directory, error)

	// ListDirectories returns every directory in ascending ID order.
	ListDirectories(ctx context.Context) ([]*Directory, error)

	// SearchDirectories returns directories whose name contains query,
	// case-insensitively, in ascending ID order. An empty query fails with
	// ErrValidation.
	SearchDirectories(ctx context.Context, query string) ([]*Directory, error)

	// DeleteDirectory deletes an empty directory.
	//
	// Fails with ErrNotEmpty, changing nothing, if the directory still has
	// subdirectories or files.
	DeleteDirectory(ctx context.Context, id uint64) error

	// DeleteDirectoryRecursive deletes a directory together with its whole
	// subtree in one transaction.
	//
	// Returns:
	//   - []string: content IDs of every deleted file, for blob cleanup
	//   - error: ErrNotFound if the directory does not exist
	DeleteDirectoryRecursive(ctx context.Context, id uint64) ([]string, error)

	// ========================================================================
	// File Operations
	// ========================================================================

	// CreateFile persists a file record. ID, CreatedAt and UpdatedAt are
	// assigned by the store; the rest is taken from file.
	//
	// Fails with ErrNotFound if file.DirectoryID does not exist.
	CreateFile(ctx context.Context, file *File) (*File, error)

	// GetFile returns the file with the given ID.
	GetFile(ctx context.Context, id uint64) (*File, error)

	// ListAllFiles returns every file in ascending ID order.
	ListAllFiles(ctx context.Context) ([]*File, error)

	// UpdateFile renames a file and optionally moves it to another directory.
	//
	// The target directory is checked inside the same transaction; an unknown
	// target fails with ErrNotFound and leaves the file untouched.
	UpdateFile(ctx context.Context, id uint64, update FileUpdate) (*File, error)

	// DeleteFile deletes a single file record and returns its content ID.
	DeleteFile(ctx context.Context, id uint64) (string, error)

	// SearchFiles returns files whose name contains query, case-insensitively.
	SearchFiles(ctx context.Context, query string) ([]*File, error)

	// ========================================================================
	// Maintenance
	// ========================================================================

	// GetAllContentIDs returns the content IDs referenced by any file.
	// Used by the garbage collector to find orphaned blobs.
	GetAllContentIDs(ctx context.Context) ([]string, error)

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
