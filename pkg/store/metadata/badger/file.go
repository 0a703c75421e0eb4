package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

func (s *BadgerMetadataStore) CreateFile(ctx context.Context, file *metadata.File) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := metadata.ValidateName(file.Name)
	if err != nil {
		return nil, err
	}

	var created *fileData
	err = s.db.Update(func(txn *badger.Txn) error {
		// Rewriting the directory doubles as the existence check
		if err := touchDirectory(txn, file.DirectoryID); err != nil {
			return err
		}

		id, err := nextID(s.fileSeq)
		if err != nil {
			return err
		}

		now := s.now()
		data := &fileData{
			ID:          id,
			Name:        name,
			DirectoryID: file.DirectoryID,
			ContentID:   file.ContentID,
			Size:        file.Size,
			ContentType: file.ContentType,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := putFileData(txn, data); err != nil {
			return err
		}
		if err := txn.Set(keyChildFile(data.DirectoryID, id), nil); err != nil {
			return err
		}

		created = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.toFile(), nil
}

func (s *BadgerMetadataStore) GetFile(ctx context.Context, id uint64) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *metadata.File
	err := s.db.View(func(txn *badger.Txn) error {
		data, err := getFileData(txn, id)
		if err != nil {
			return err
		}
		file = data.toFile()
		return nil
	})
	return file, err
}

func (s *BadgerMetadataStore) ListAllFiles(ctx context.Context) ([]*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*metadata.File, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(ctx, txn, prefixFile, func(val []byte) error {
			data, err := decodeFileData(val)
			if err != nil {
				return err
			}
			out = append(out, data.toFile())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFile renames a file and optionally moves it to another directory.
func (s *BadgerMetadataStore) UpdateFile(ctx context.Context, id uint64, update metadata.FileUpdate) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := metadata.ValidateName(update.Name)
	if err != nil {
		return nil, err
	}

	var updated *fileData
	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := getFileData(txn, id)
		if err != nil {
			return err
		}

		if update.DirectoryID != nil {
			if err := touchDirectory(txn, *update.DirectoryID); err != nil {
				return err
			}
			if *update.DirectoryID != data.DirectoryID {
				if err := txn.Delete(keyChildFile(data.DirectoryID, id)); err != nil {
					return err
				}
				if err := txn.Set(keyChildFile(*update.DirectoryID, id), nil); err != nil {
					return err
				}
				data.DirectoryID = *update.DirectoryID
			}
		}

		data.Name = name
		data.UpdatedAt = s.now()
		if err := putFileData(txn, data); err != nil {
			return err
		}

		updated = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.toFile(), nil
}

func (s *BadgerMetadataStore) DeleteFile(ctx context.Context, id uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var contentID string
	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := getFileData(txn, id)
		if err != nil {
			return err
		}
		contentID = data.ContentID
		return deleteFileRecord(txn, data)
	})
	if err != nil {
		return "", err
	}
	return contentID, nil
}

func (s *BadgerMetadataStore) SearchFiles(ctx context.Context, query string) ([]*metadata.File, error) {
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

func (s *BadgerMetadataStore) GetAllContentIDs(ctx context.Context) ([]string, error) {
	files, err := s.ListAllFiles(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ContentID)
	}
	return ids, nil
}

func deleteFileRecord(txn *badger.Txn, data *fileData) error {
	if err := txn.Delete(keyChildFile(data.DirectoryID, data.ID)); err != nil {
		return err
	}
	return txn.Delete(keyFile(data.ID))
}
