package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/marmos91/nestfs/pkg/tree"
)

// parentLookup returns a tree.ParentLookup bound to txn.
func parentLookup(txn *badger.Txn) tree.ParentLookup {
	return func(_ context.Context, id uint64) (*uint64, error) {
		data, err := getDirectoryData(txn, id)
		if err != nil {
			return nil, err
		}
		return data.ParentID, nil
	}
}

func (s *BadgerMetadataStore) CreateDirectory(ctx context.Context, name string, parentID *uint64) (*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := metadata.ValidateName(name)
	if err != nil {
		return nil, err
	}

	var created *directoryData
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := tree.ValidateParent(ctx, 0, parentID, parentLookup(txn)); err != nil {
			return err
		}

		id, err := nextID(s.dirSeq)
		if err != nil {
			return err
		}

		now := s.now()
		data := &directoryData{
			ID:        id,
			Name:      name,
			ParentID:  parentID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := putDirectoryData(txn, data); err != nil {
			return err
		}

		if parentID != nil {
			if err := touchDirectory(txn, *parentID); err != nil {
				return err
			}
			if err := txn.Set(keyChildDir(*parentID, id), nil); err != nil {
				return err
			}
		}

		created = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created.toDirectory(), nil
}

// UpdateDirectory renames and/or reparents a directory.
//
// Parent validation reads the ancestor chain inside the same transaction,
// so a concurrent reparent of any ancestor makes one of the two commits
// fail with badger.ErrConflict.
func (s *BadgerMetadataStore) UpdateDirectory(ctx context.Context, id uint64, update metadata.DirectoryUpdate) (*metadata.Directory, error) {
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

	var updated *directoryData
	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := getDirectoryData(txn, id)
		if err != nil {
			return err
		}

		if update.Name != nil {
			data.Name = newName
		}

		if update.Reparent {
			if err := tree.ValidateParent(ctx, id, update.ParentID, parentLookup(txn)); err != nil {
				return err
			}

			if data.ParentID != nil {
				if err := txn.Delete(keyChildDir(*data.ParentID, id)); err != nil {
					return err
				}
			}
			data.ParentID = update.ParentID
			if update.ParentID != nil {
				if err := touchDirectory(txn, *update.ParentID); err != nil {
					return err
				}
				if err := txn.Set(keyChildDir(*update.ParentID, id), nil); err != nil {
					return err
				}
			}
		}

		data.UpdatedAt = s.now()
		if err := putDirectoryData(txn, data); err != nil {
			return err
		}

		updated = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated.toDirectory(), nil
}

func (s *BadgerMetadataStore) ListDirectories(ctx context.Context) ([]*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*metadata.Directory, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(ctx, txn, prefixDirectory, func(val []byte) error {
			data, err := decodeDirectoryData(val)
			if err != nil {
				return err
			}
			out = append(out, data.toDirectory())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerMetadataStore) SearchDirectories(ctx context.Context, query string) ([]*metadata.Directory, error) {
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
func (s *BadgerMetadataStore) DeleteDirectory(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := getDirectoryData(txn, id)
		if err != nil {
			return err
		}

		if len(listChildIDs(txn, keyChildDirPrefix(id))) > 0 || len(listChildIDs(txn, keyChildFilePrefix(id))) > 0 {
			return metadata.NewNotEmptyError(id)
		}

		return deleteDirectoryRecord(txn, data)
	})
}

// DeleteDirectoryRecursive deletes a directory and its whole subtree in one
// transaction: a pre-order walk collects every descendant, then records are
// removed leaves first.
func (s *BadgerMetadataStore) DeleteDirectoryRecursive(ctx context.Context, id uint64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var contentIDs []string
	err := s.db.Update(func(txn *badger.Txn) error {
		root, err := getDirectoryData(txn, id)
		if err != nil {
			return err
		}

		// Pre-order walk
		order := []*directoryData{root}
		for i := 0; i < len(order); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, childID := range listChildIDs(txn, keyChildDirPrefix(order[i].ID)) {
				child, err := getDirectoryData(txn, childID)
				if err != nil {
					return err
				}
				order = append(order, child)
			}
		}

		contentIDs = make([]string, 0)
		for i := len(order) - 1; i >= 0; i-- {
			dir := order[i]
			for _, fileID := range listChildIDs(txn, keyChildFilePrefix(dir.ID)) {
				file, err := getFileData(txn, fileID)
				if err != nil {
					return err
				}
				contentIDs = append(contentIDs, file.ContentID)
				if err := deleteFileRecord(txn, file); err != nil {
					return err
				}
			}
			if err := deleteDirectoryRecord(txn, dir); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contentIDs, nil
}

// deleteDirectoryRecord removes a directory record and its entry in the
// parent's child index. The caller guarantees it has no children left.
func deleteDirectoryRecord(txn *badger.Txn, data *directoryData) error {
	if data.ParentID != nil {
		if err := txn.Delete(keyChildDir(*data.ParentID, data.ID)); err != nil {
			return err
		}
	}
	return txn.Delete(keyDirectory(data.ID))
}
