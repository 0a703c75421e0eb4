package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/marmos91/nestfs/pkg/tree"
)

// CreateDirectory creates a directory under parentID (nil for a root).
func (s *MemoryMetadataStore) CreateDirectory(ctx context.Context, name string, parentID *uint64) (*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := metadata.ValidateName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := tree.ValidateParent(ctx, 0, parentID, s.parentLookup); err != nil {
		return nil, err
	}

	s.nextDirID++
	now := s.now()
	dir := &metadata.Directory{
		ID:        s.nextDirID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parentID != nil {
		dir.ParentID = metadata.ParentOf(*parentID)
		s.childDirs[*parentID] = insertSorted(s.childDirs[*parentID], dir.ID)
	}

	s.dirs[dir.ID] = dir
	return dir.Clone(), nil
}

// UpdateDirectory renames and/or reparents a directory.
func (s *MemoryMetadataStore) UpdateDirectory(ctx context.Context, id uint64, update metadata.DirectoryUpdate) (*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var newName string
	if update.Name != nil {
		var err error
		if newName, err = metadata.ValidateName(*update.Name); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.dirs[id]
	if !ok {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}

	if update.Reparent {
		if err := tree.ValidateParent(ctx, id, update.ParentID, s.parentLookup); err != nil {
			return nil, err
		}
	}

	// All checks passed, mutate
	if update.Name != nil {
		dir.Name = newName
	}
	if update.Reparent {
		if dir.ParentID != nil {
			s.childDirs[*dir.ParentID] = removeID(s.childDirs[*dir.ParentID], id)
		}
		dir.ParentID = nil
		if update.ParentID != nil {
			dir.ParentID = metadata.ParentOf(*update.ParentID)
			s.childDirs[*update.ParentID] = insertSorted(s.childDirs[*update.ParentID], id)
		}
	}
	dir.UpdatedAt = s.now()

	return dir.Clone(), nil
}

func (s *MemoryMetadataStore) ListDirectories(ctx context.Context) ([]*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*metadata.Directory, 0, len(s.dirs))
	for _, id := range slices.Sorted(maps.Keys(s.dirs)) {
		out = append(out, s.dirs[id].Clone())
	}
	return out, nil
}

func (s *MemoryMetadataStore) SearchDirectories(ctx context.Context, query string) ([]*metadata.Directory, error) {
	if query == "" {
		return nil, metadata.NewValidationError("search query is required")
	}

	all, err := s.ListDirectories(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*metadata.Directory, 0)
	for _, dir := range all {
		if metadata.MatchesQuery(dir.Name, query) {
			out = append(out, dir)
		}
	}
	return out, nil
}

// DeleteDirectory deletes an empty directory.
func (s *MemoryMetadataStore) DeleteDirectory(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[id]; !ok {
		return metadata.NewDirectoryNotFoundError(id)
	}
	if len(s.childDirs[id]) > 0 || len(s.childFiles[id]) > 0 {
		return metadata.NewNotEmptyError(id)
	}

	s.removeDirectoryLocked(id)
	return nil
}

// DeleteDirectoryRecursive deletes a directory and its whole subtree.
//
// The subtree is collected with a pre-order walk and removed leaves first
// while the write lock is held.
func (s *MemoryMetadataStore) DeleteDirectoryRecursive(ctx context.Context, id uint64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[id]; !ok {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}

	// Pre-order walk
	order := []uint64{id}
	for i := 0; i < len(order); i++ {
		order = append(order, s.childDirs[order[i]]...)
	}

	contentIDs := make([]string, 0)
	for i := len(order) - 1; i >= 0; i-- {
		dirID := order[i]
		for _, fileID := range s.childFiles[dirID] {
			contentIDs = append(contentIDs, s.files[fileID].ContentID)
			delete(s.files, fileID)
		}
		delete(s.childFiles, dirID)
		s.removeDirectoryLocked(dirID)
	}

	return contentIDs, nil
}

// removeDirectoryLocked unlinks a directory with no remaining children.
func (s *MemoryMetadataStore) removeDirectoryLocked(id uint64) {
	dir := s.dirs[id]
	if dir.ParentID != nil {
		s.childDirs[*dir.ParentID] = removeID(s.childDirs[*dir.ParentID], id)
	}
	delete(s.childDirs, id)
	delete(s.childFiles, id)
	delete(s.dirs, id)
}
