package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// SQLMetadataStore implements metadata.Store on a relational database
// through database/sql.
//
// Every operation runs in one database transaction. The pool is limited to
// a single connection, which serializes transactions the way both embedded
// engines expect and keeps every check-then-act sequence atomic.
type SQLMetadataStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// SQLMetadataStoreConfig contains configuration for creating an SQL metadata store.
type SQLMetadataStoreConfig struct {
	// Dialect selects the engine (sqlite or duckdb)
	Dialect Dialect

	// Path is the database file. For DuckDB an empty path opens an
	// in-memory database.
	Path string `mapstructure:"path"`
}

// NewSQLMetadataStore opens the database and creates the schema if needed.
func NewSQLMetadataStore(ctx context.Context, config SQLMetadataStoreConfig) (*SQLMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialect := config.Dialect
	if dialect == "" {
		dialect = DialectSQLite
	}

	db, err := sql.Open(dialect.driverName(), dialect.dsn(config.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database at %s: %w", dialect, config.Path, err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLMetadataStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("%s metadata store opened at %s", dialect, config.Path)
	return store, nil
}

// NewSQLiteMetadataStore opens an SQLite-backed store at path.
func NewSQLiteMetadataStore(ctx context.Context, path string) (*SQLMetadataStore, error) {
	return NewSQLMetadataStore(ctx, SQLMetadataStoreConfig{Dialect: DialectSQLite, Path: path})
}

// NewDuckDBMetadataStore opens a DuckDB-backed store at path.
func NewDuckDBMetadataStore(ctx context.Context, path string) (*SQLMetadataStore, error) {
	return NewSQLMetadataStore(ctx, SQLMetadataStoreConfig{Dialect: DialectDuckDB, Path: path})
}

func (s *SQLMetadataStore) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLMetadataStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect, err)
	}
	return nil
}

func (s *SQLMetadataStore) Healthcheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, committing on success.
func (s *SQLMetadataStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// View runs fn inside a transaction that is rolled back afterwards.
func (s *SQLMetadataStore) View(ctx context.Context, fn func(r metadata.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(txReader{tx: tx})
}

// ============================================================================
// Row helpers
// ============================================================================

const (
	directoryColumns = `id, name, parent_id, created_at, updated_at`
	fileColumns      = `id, name, directory_id, content_id, size, content_type, created_at, updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDirectory(row rowScanner) (*metadata.Directory, error) {
	var (
		id     int64
		parent sql.NullInt64
		dir    metadata.Directory
	)
	if err := row.Scan(&id, &dir.Name, &parent, &dir.CreatedAt, &dir.UpdatedAt); err != nil {
		return nil, err
	}
	dir.ID = uint64(id)
	if parent.Valid {
		dir.ParentID = metadata.ParentOf(uint64(parent.Int64))
	}
	return &dir, nil
}

func scanFile(row rowScanner) (*metadata.File, error) {
	var (
		id, dirID, size int64
		file            metadata.File
	)
	if err := row.Scan(&id, &file.Name, &dirID, &file.ContentID, &size, &file.ContentType, &file.CreatedAt, &file.UpdatedAt); err != nil {
		return nil, err
	}
	file.ID = uint64(id)
	file.DirectoryID = uint64(dirID)
	file.Size = uint64(size)
	return &file, nil
}

func nullableID(id *uint64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func getDirectory(ctx context.Context, tx *sql.Tx, id uint64) (*metadata.Directory, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+directoryColumns+` FROM directories WHERE id = ?`, int64(id))
	dir, err := scanDirectory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directory %d: %w", id, err)
	}
	return dir, nil
}

func getFile(ctx context.Context, tx *sql.Tx, id uint64) (*metadata.File, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, int64(id))
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.NewFileNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %d: %w", id, err)
	}
	return file, nil
}

func queryDirectories(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]*metadata.Directory, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query directories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*metadata.Directory, 0)
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		out = append(out, dir)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate directories: %w", err)
	}
	return out, nil
}

func queryFiles(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]*metadata.File, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*metadata.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	return out, nil
}

func countRows(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	var n int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// ============================================================================
// Reader
// ============================================================================

type txReader struct {
	tx *sql.Tx
}

func (r txReader) GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error) {
	return getDirectory(ctx, r.tx, id)
}

func (r txReader) ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error) {
	if _, err := getDirectory(ctx, r.tx, id); err != nil {
		return nil, err
	}
	return queryDirectories(ctx, r.tx,
		`SELECT `+directoryColumns+` FROM directories WHERE parent_id = ? ORDER BY id`, int64(id))
}

func (r txReader) ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error) {
	if _, err := getDirectory(ctx, r.tx, directoryID); err != nil {
		return nil, err
	}
	return queryFiles(ctx, r.tx,
		`SELECT `+fileColumns+` FROM files WHERE directory_id = ? ORDER BY id`, int64(directoryID))
}

func (s *SQLMetadataStore) GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error) {
	var dir *metadata.Directory
	err := s.View(ctx, func(r metadata.Reader) error {
		var err error
		dir, err = r.GetDirectory(ctx, id)
		return err
	})
	return dir, err
}

func (s *SQLMetadataStore) ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error) {
	var dirs []*metadata.Directory
	err := s.View(ctx, func(r metadata.Reader) error {
		var err error
		dirs, err = r.ListSubdirectories(ctx, id)
		return err
	})
	return dirs, err
}

func (s *SQLMetadataStore) ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error) {
	var files []*metadata.File
	err := s.View(ctx, func(r metadata.Reader) error {
		var err error
		files, err = r.ListFiles(ctx, directoryID)
		return err
	})
	return files, err
}

var _ metadata.Store = (*SQLMetadataStore)(nil)
