package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

func (s *MemoryMetadataStore) CreateFile(ctx context.Context, file *metadata.File) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := metadata.ValidateName(file.Name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[file.DirectoryID]; !ok {
		return nil, metadata.NewDirectoryNotFoundError(file.DirectoryID)
	}

	s.nextFileID++
	now := s.now()
	record := *file
	record.ID = s.nextFileID
	record.Name = name
	record.CreatedAt = now
	record.UpdatedAt = now

	s.files[record.ID] = &record
	s.childFiles[record.DirectoryID] = insertSorted(s.childFiles[record.DirectoryID], record.ID)

	out := record
	return &out, nil
}

func (s *MemoryMetadataStore) GetFile(ctx context.Context, id uint64) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, metadata.NewFileNotFoundError(id)
	}
	out := *file
	return &out, nil
}

func (s *MemoryMetadataStore) ListAllFiles(ctx context.Context) ([]*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*metadata.File, 0, len(s.files))
	for _, id := range slices.Sorted(maps.Keys(s.files)) {
		file := *s.files[id]
		out = append(out, &file)
	}
	return out, nil
}

// UpdateFile renames a file and optionally moves it.
func (s *MemoryMetadataStore) UpdateFile(ctx context.Context, id uint64, update metadata.FileUpdate) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := metadata.ValidateName(update.Name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, metadata.NewFileNotFoundError(id)
	}
	if update.DirectoryID != nil {
		if _, ok := s.dirs[*update.DirectoryID]; !ok {
			return nil, metadata.NewDirectoryNotFoundError(*update.DirectoryID)
		}
	}

	file.Name = name
	if update.DirectoryID != nil && *update.DirectoryID != file.DirectoryID {
		s.childFiles[file.DirectoryID] = removeID(s.childFiles[file.DirectoryID], id)
		file.DirectoryID = *update.DirectoryID
		s.childFiles[file.DirectoryID] = insertSorted(s.childFiles[file.DirectoryID], id)
	}
	file.UpdatedAt = s.now()

	out := *file
	return &out, nil
}

func (s *MemoryMetadataStore) DeleteFile(ctx context.Context, id uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return "", metadata.NewFileNotFoundError(id)
	}

	s.childFiles[file.DirectoryID] = removeID(s.childFiles[file.DirectoryID], id)
	delete(s.files, id)
	return file.ContentID, nil
}

func (s *MemoryMetadataStore) SearchFiles(ctx context.Context, query string) ([]*metadata.File, error) {
	if query == "" {
		return nil, metadata.NewValidationError("search query is required")
	}

	all, err := s.ListAllFiles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*metadata.File, 0)
	for _, file := range all {
		if metadata.MatchesQuery(file.Name, query) {
			out = append(out, file)
		}
	}
	return out, nil
}
