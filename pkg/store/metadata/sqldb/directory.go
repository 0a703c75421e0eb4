package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/marmos91/nestfs/pkg/tree"
)

// parentLookup returns a tree.ParentLookup bound to tx.
func parentLookup(tx *sql.Tx) tree.ParentLookup {
	return func(ctx context.Context, id uint64) (*uint64, error) {
		var parent sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT parent_id FROM directories WHERE id = ?`, int64(id)).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, metadata.NewDirectoryNotFoundError(id)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get parent of directory %d: %w", id, err)
		}
		if !parent.Valid {
			return nil, nil
		}
		return metadata.ParentOf(uint64(parent.Int64)), nil
	}
}

func (s *SQLMetadataStore) CreateDirectory(ctx context.Context, name string, parentID *uint64) (*metadata.Directory, error) {
	name, err := metadata.ValidateName(name)
	if err != nil {
		return nil, err
	}

	var created *metadata.Directory
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tree.ValidateParent(ctx, 0, parentID, parentLookup(tx)); err != nil {
			return err
		}

		now := s.now()
		row := tx.QueryRowContext(ctx,
			`INSERT INTO directories (name, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING `+directoryColumns,
			name, nullableID(parentID), now, now)

		dir, err := scanDirectory(row)
		if err != nil {
			return fmt.Errorf("failed to insert directory: %w", err)
		}
		created = dir
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateDirectory renames and/or reparents a directory. The ancestor walk
// and the update share one transaction.
func (s *SQLMetadataStore) UpdateDirectory(ctx context.Context, id uint64, update metadata.DirectoryUpdate) (*metadata.Directory, error) {
	var newName string
	if update.Name != nil {
		var err error
		if newName, err = metadata.ValidateName(*update.Name); err != nil {
			return nil, err
		}
	}

	var updated *metadata.Directory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		dir, err := getDirectory(ctx, tx, id)
		if err != nil {
			return err
		}

		if update.Name != nil {
			dir.Name = newName
		}
		if update.Reparent {
			if err := tree.ValidateParent(ctx, id, update.ParentID, parentLookup(tx)); err != nil {
				return err
			}
			dir.ParentID = update.ParentID
		}
		dir.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx,
			`UPDATE directories SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?`,
			dir.Name, nullableID(dir.ParentID), dir.UpdatedAt, int64(id))
		if err != nil {
			return fmt.Errorf("failed to update directory %d: %w", id, err)
		}

		updated = dir
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLMetadataStore) ListDirectories(ctx context.Context) ([]*metadata.Directory, error) {
	var dirs []*metadata.Directory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		dirs, err = queryDirectories(ctx, tx, `SELECT `+directoryColumns+` FROM directories ORDER BY id`)
		return err
	})
	return dirs, err
}

// SearchDirectories matches names with metadata.MatchesQuery in Go, so case
// folding is Unicode-aware on every dialect (SQLite's lower() is ASCII-only).
func (s *SQLMetadataStore) SearchDirectories(ctx context.Context, query string) ([]*metadata.Directory, error) {
	if query == "" {
		return nil, metadata.NewValidationError("search query is required")
	}

	var dirs []*metadata.Directory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		all, err := queryDirectories(ctx, tx, `SELECT `+directoryColumns+` FROM directories ORDER BY id`)
		if err != nil {
			return err
		}
		for _, dir := range all {
			if metadata.MatchesQuery(dir.Name, query) {
				dirs = append(dirs, dir)
			}
		}
		return nil
	})
	return dirs, err
}

// DeleteDirectory deletes an empty directory.
func (s *SQLMetadataStore) DeleteDirectory(ctx context.Context, id uint64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getDirectory(ctx, tx, id); err != nil {
			return err
		}

		subdirs, err := countRows(ctx, tx, `SELECT COUNT(*) FROM directories WHERE parent_id = ?`, int64(id))
		if err != nil {
			return err
		}
		files, err := countRows(ctx, tx, `SELECT COUNT(*) FROM files WHERE directory_id = ?`, int64(id))
		if err != nil {
			return err
		}
		if subdirs > 0 || files > 0 {
			return metadata.NewNotEmptyError(id)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM directories WHERE id = ?`, int64(id)); err != nil {
			return fmt.Errorf("failed to delete directory %d: %w", id, err)
		}
		return nil
	})
}

// subtreeContentIDs selects the content IDs of every file under a directory.
// UNION drops revisited rows, so a corrupted parent cycle still terminates.
const subtreeContentIDs = `
WITH RECURSIVE subtree(id) AS (
	SELECT id FROM directories WHERE id = ?
	UNION
	SELECT d.id FROM directories d JOIN subtree s ON d.parent_id = s.id
)
SELECT content_id FROM files WHERE directory_id IN (SELECT id FROM subtree) ORDER BY id`

// DeleteDirectoryRecursive deletes a directory and its whole subtree in one
// transaction.
//
// SQLite deletes the subtree through ON DELETE CASCADE. DuckDB collects the
// subtree with a pre-order walk and deletes leaves first.
func (s *SQLMetadataStore) DeleteDirectoryRecursive(ctx context.Context, id uint64) ([]string, error) {
	var contentIDs []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getDirectory(ctx, tx, id); err != nil {
			return err
		}

		ids, err := queryStrings(ctx, tx, subtreeContentIDs, int64(id))
		if err != nil {
			return err
		}
		contentIDs = ids

		if s.dialect.nativeCascade() {
			if _, err := tx.ExecContext(ctx, `DELETE FROM directories WHERE id = ?`, int64(id)); err != nil {
				return fmt.Errorf("failed to delete directory %d: %w", id, err)
			}
			return nil
		}
		return deleteSubtree(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	return contentIDs, nil
}

// deleteSubtree walks the tree under id in pre-order and deletes every
// directory's files and then the directory itself, deepest first. Each
// directory is visited once even if parent links form a cycle.
func deleteSubtree(ctx context.Context, tx *sql.Tx, id uint64) error {
	order := []uint64{id}
	seen := map[uint64]struct{}{id: {}}
	for i := 0; i < len(order); i++ {
		children, err := queryIDs(ctx, tx, `SELECT id FROM directories WHERE parent_id = ? ORDER BY id`, int64(order[i]))
		if err != nil {
			return err
		}
		for _, child := range children {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			order = append(order, child)
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		dirID := int64(order[i])
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE directory_id = ?`, dirID); err != nil {
			return fmt.Errorf("failed to delete files of directory %d: %w", dirID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM directories WHERE id = ?`, dirID); err != nil {
			return fmt.Errorf("failed to delete directory %d: %w", dirID, err)
		}
	}
	return nil
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
