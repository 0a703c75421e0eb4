package service

import (
	"context"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/marmos91/nestfs/pkg/tree"
)

// CreateDirectory creates a directory under parentID, or a root when
// parentID is nil.
func (s *Service) CreateDirectory(ctx context.Context, name string, parentID *uint64) (dir *metadata.Directory, err error) {
	defer s.observe("CreateDirectory", time.Now(), &err)

	dir, err = s.metadata.CreateDirectory(ctx, name, parentID)
	if err != nil {
		return nil, err
	}

	logger.Debug("Created directory %d %q (parent=%v)", dir.ID, dir.Name, formatParent(dir.ParentID))
	return dir, nil
}

// CreateSubdirectory creates a directory under parentID and returns it
// serialized at the default depth.
func (s *Service) CreateSubdirectory(ctx context.Context, parentID uint64, name string) (*tree.Node, error) {
	dir, err := s.CreateDirectory(ctx, name, &parentID)
	if err != nil {
		return nil, err
	}
	return s.DirectoryTree(ctx, dir.ID, nil)
}

// GetDirectory returns the directory record without its subtree.
func (s *Service) GetDirectory(ctx context.Context, id uint64) (dir *metadata.Directory, err error) {
	defer s.observe("GetDirectory", time.Now(), &err)
	return s.metadata.GetDirectory(ctx, id)
}

// DirectoryTree serializes directory id. A nil maxDepth selects the
// configured default; larger values are capped at the configured limit.
//
// The whole tree is read from one snapshot.
func (s *Service) DirectoryTree(ctx context.Context, id uint64, maxDepth *int) (node *tree.Node, err error) {
	defer s.observe("DirectoryTree", time.Now(), &err)

	depth := tree.ClampDepth(maxDepth, s.opts.DefaultMaxDepth, s.opts.MaxDepthLimit)

	err = s.metadata.View(ctx, func(r metadata.Reader) error {
		var err error
		node, err = tree.Serialize(ctx, r, id, depth)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// ListDirectories serializes every directory at the default depth, in ID
// order.
func (s *Service) ListDirectories(ctx context.Context) (nodes []*tree.Node, err error) {
	defer s.observe("ListDirectories", time.Now(), &err)

	// Stores must not be re-entered from inside View, so the listing is
	// taken first. Directories deleted in between are skipped.
	dirs, err := s.metadata.ListDirectories(ctx)
	if err != nil {
		return nil, err
	}

	err = s.metadata.View(ctx, func(r metadata.Reader) error {
		nodes = make([]*tree.Node, 0, len(dirs))
		for _, dir := range dirs {
			node, err := tree.Serialize(ctx, r, dir.ID, s.opts.DefaultMaxDepth)
			if metadata.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// UpdateDirectory renames and/or reparents a directory.
func (s *Service) UpdateDirectory(ctx context.Context, id uint64, update metadata.DirectoryUpdate) (dir *metadata.Directory, err error) {
	defer s.observe("UpdateDirectory", time.Now(), &err)

	dir, err = s.metadata.UpdateDirectory(ctx, id, update)
	if err != nil {
		return nil, err
	}

	logger.Debug("Updated directory %d %q (parent=%v)", dir.ID, dir.Name, formatParent(dir.ParentID))
	return dir, nil
}

// ListSubdirectories returns the direct children of a directory.
func (s *Service) ListSubdirectories(ctx context.Context, id uint64) (dirs []*metadata.Directory, err error) {
	defer s.observe("ListSubdirectories", time.Now(), &err)
	return s.metadata.ListSubdirectories(ctx, id)
}

// ListFiles returns the files directly inside a directory.
func (s *Service) ListFiles(ctx context.Context, directoryID uint64) (files []*metadata.File, err error) {
	defer s.observe("ListFiles", time.Now(), &err)
	return s.metadata.ListFiles(ctx, directoryID)
}

// SearchDirectories returns directories whose name contains query, ignoring case.
func (s *Service) SearchDirectories(ctx context.Context, query string) (dirs []*metadata.Directory, err error) {
	defer s.observe("SearchDirectories", time.Now(), &err)
	return s.metadata.SearchDirectories(ctx, query)
}

// DeleteDirectory deletes an empty directory. A directory with any file or
// subdirectory fails with a NotEmpty error and is left untouched.
func (s *Service) DeleteDirectory(ctx context.Context, id uint64) (err error) {
	defer s.observe("DeleteDirectory", time.Now(), &err)

	if err = s.metadata.DeleteDirectory(ctx, id); err != nil {
		return err
	}

	logger.Debug("Deleted directory %d", id)
	return nil
}

// DeleteDirectoryRecursive deletes a directory, all its descendants and
// their files, then removes the files' blobs.
func (s *Service) DeleteDirectoryRecursive(ctx context.Context, id uint64) (err error) {
	defer s.observe("DeleteDirectoryRecursive", time.Now(), &err)

	contentIDs, err := s.metadata.DeleteDirectoryRecursive(ctx, id)
	if err != nil {
		return err
	}

	logger.Debug("Deleted directory %d with %d files", id, len(contentIDs))
	s.deleteBlobs(ctx, contentIDs)
	return nil
}

func formatParent(parent *uint64) any {
	if parent == nil {
		return "none"
	}
	return *parent
}
