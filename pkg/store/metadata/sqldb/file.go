package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

func (s *SQLMetadataStore) CreateFile(ctx context.Context, file *metadata.File) (*metadata.File, error) {
	name, err := metadata.ValidateName(file.Name)
	if err != nil {
		return nil, err
	}

	var created *metadata.File
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getDirectory(ctx, tx, file.DirectoryID); err != nil {
			return err
		}

		now := s.now()
		row := tx.QueryRowContext(ctx,
			`INSERT INTO files (name, directory_id, content_id, size, content_type, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING `+fileColumns,
			name, int64(file.DirectoryID), file.ContentID, int64(file.Size), file.ContentType, now, now)

		f, err := scanFile(row)
		if err != nil {
			return fmt.Errorf("failed to insert file: %w", err)
		}
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLMetadataStore) GetFile(ctx context.Context, id uint64) (*metadata.File, error) {
	var file *metadata.File
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		file, err = getFile(ctx, tx, id)
		return err
	})
	return file, err
}

func (s *SQLMetadataStore) ListAllFiles(ctx context.Context) ([]*metadata.File, error) {
	var files []*metadata.File
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		files, err = queryFiles(ctx, tx, `SELECT `+fileColumns+` FROM files ORDER BY id`)
		return err
	})
	return files, err
}

// UpdateFile renames a file and optionally moves it. The target directory
// is checked in the same transaction as the update.
func (s *SQLMetadataStore) UpdateFile(ctx context.Context, id uint64, update metadata.FileUpdate) (*metadata.File, error) {
	name, err := metadata.ValidateName(update.Name)
	if err != nil {
		return nil, err
	}

	var updated *metadata.File
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		file, err := getFile(ctx, tx, id)
		if err != nil {
			return err
		}

		if update.DirectoryID != nil {
			if _, err := getDirectory(ctx, tx, *update.DirectoryID); err != nil {
				return err
			}
			file.DirectoryID = *update.DirectoryID
		}
		file.Name = name
		file.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx,
			`UPDATE files SET name = ?, directory_id = ?, updated_at = ? WHERE id = ?`,
			file.Name, int64(file.DirectoryID), file.UpdatedAt, int64(id))
		if err != nil {
			return fmt.Errorf("failed to update file %d: %w", id, err)
		}

		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLMetadataStore) DeleteFile(ctx context.Context, id uint64) (string, error) {
	var contentID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		file, err := getFile(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, int64(id)); err != nil {
			return fmt.Errorf("failed to delete file %d: %w", id, err)
		}
		contentID = file.ContentID
		return nil
	})
	if err != nil {
		return "", err
	}
	return contentID, nil
}

// SearchFiles filters names in Go, like SearchDirectories.
func (s *SQLMetadataStore) SearchFiles(ctx context.Context, query string) ([]*metadata.File, error) {
	if query == "" {
		return nil, metadata.NewValidationError("search query is required")
	}

	var files []*metadata.File
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		all, err := queryFiles(ctx, tx, `SELECT `+fileColumns+` FROM files ORDER BY id`)
		if err != nil {
			return err
		}
		for _, file := range all {
			if metadata.MatchesQuery(file.Name, query) {
				files = append(files, file)
			}
		}
		return nil
	})
	return files, err
}

func (s *SQLMetadataStore) GetAllContentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ids, err = queryStrings(ctx, tx, `SELECT content_id FROM files ORDER BY id`)
		return err
	})
	return ids, err
}
