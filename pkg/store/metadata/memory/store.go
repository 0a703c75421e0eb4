package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// MemoryMetadataStore implements metadata.Store using in-memory storage.
//
// It is suitable for tests, development, and deployments where the tree does
// not need to survive a restart.
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu). Holding
// the write lock is the store's transaction: every check-then-act sequence
// (parent validation, strict delete, cascade delete, file move) runs under
// one acquisition, so no other caller ever observes a partial change.
//
// Storage Model:
//   - dirs/files: records keyed by ID
//   - childDirs/childFiles: ordered child ID lists per directory, kept in
//     ascending ID order so listings follow insertion order
//   - nextDirID/nextFileID: monotonically increasing counters, IDs are
//     never reused
type MemoryMetadataStore struct {
	mu sync.RWMutex

	dirs  map[uint64]*metadata.Directory
	files map[uint64]*metadata.File

	childDirs  map[uint64][]uint64
	childFiles map[uint64][]uint64

	nextDirID  uint64
	nextFileID uint64

	// now is overridable in tests
	now func() time.Time
}

// NewMemoryMetadataStore creates an empty in-memory metadata store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		dirs:       make(map[uint64]*metadata.Directory),
		files:      make(map[uint64]*metadata.File),
		childDirs:  make(map[uint64][]uint64),
		childFiles: make(map[uint64][]uint64),
		now:        time.Now,
	}
}

// snapshot is a Reader over the maps that assumes the caller holds mu.
type snapshot struct {
	s *MemoryMetadataStore
}

func (r snapshot) GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, ok := r.s.dirs[id]
	if !ok {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}
	return dir.Clone(), nil
}

func (r snapshot) ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := r.s.dirs[id]; !ok {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}
	out := make([]*metadata.Directory, 0, len(r.s.childDirs[id]))
	for _, childID := range r.s.childDirs[id] {
		out = append(out, r.s.dirs[childID].Clone())
	}
	return out, nil
}

func (r snapshot) ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := r.s.dirs[directoryID]; !ok {
		return nil, metadata.NewDirectoryNotFoundError(directoryID)
	}
	out := make([]*metadata.File, 0, len(r.s.childFiles[directoryID]))
	for _, fileID := range r.s.childFiles[directoryID] {
		file := *r.s.files[fileID]
		out = append(out, &file)
	}
	return out, nil
}

func (s *MemoryMetadataStore) GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s}.GetDirectory(ctx, id)
}

func (s *MemoryMetadataStore) ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s}.ListSubdirectories(ctx, id)
}

func (s *MemoryMetadataStore) ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{s}.ListFiles(ctx, directoryID)
}

// View runs fn while holding the read lock.
func (s *MemoryMetadataStore) View(ctx context.Context, fn func(r metadata.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(snapshot{s})
}

// parentLookup is the tree.ParentLookup used inside write transactions.
func (s *MemoryMetadataStore) parentLookup(_ context.Context, id uint64) (*uint64, error) {
	dir, ok := s.dirs[id]
	if !ok {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}
	return dir.ParentID, nil
}

func (s *MemoryMetadataStore) GetAllContentIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.files))
	for _, id := range slices.Sorted(maps.Keys(s.files)) {
		ids = append(ids, s.files[id].ContentID)
	}
	return ids, nil
}

// Healthcheck always succeeds unless the context is done.
func (s *MemoryMetadataStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryMetadataStore) Close() error {
	return nil
}

// insertSorted inserts id into an ascending slice.
func insertSorted(ids []uint64, id uint64) []uint64 {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

// removeID removes id from an ascending slice.
func removeID(ids []uint64, id uint64) []uint64 {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

var _ metadata.Store = (*MemoryMetadataStore)(nil)
