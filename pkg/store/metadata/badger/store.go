package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// sequenceBandwidth is how many IDs a badger.Sequence leases at once.
// Unused IDs of a lease are skipped after a restart, so IDs stay unique and
// increasing but are not dense.
const sequenceBandwidth = 100

// BadgerMetadataStore implements metadata.Store using BadgerDB for persistence.
//
// Key Features:
//   - Persistent storage with crash recovery (WAL-based)
//   - Serializable transactions: every check-then-act runs in one db.Update
//   - Efficient ordered range scans for directory listings
//
// Concurrency:
// BadgerDB transactions are optimistic. Any write that adds a child to a
// directory also rewrites that directory's record, so a concurrent delete
// that read the directory fails at commit with badger.ErrConflict instead of
// leaving an orphan behind. Conflicts are returned to the caller as-is.
//
// Storage Model:
// See keys.go for the key namespace layout.
type BadgerMetadataStore struct {
	// db is the BadgerDB database handle (thread-safe, uses internal MVCC)
	db *badger.DB

	dirSeq  *badger.Sequence
	fileSeq *badger.Sequence

	now func() time.Time
}

// BadgerMetadataStoreConfig contains configuration for creating a BadgerDB metadata store.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files
	// BadgerDB creates multiple files in this directory (value log, LSM tree, etc.)
	DBPath string `mapstructure:"db_path"`

	// BadgerOptions allows customization of BadgerDB behavior
	// If nil, sensible defaults are used
	BadgerOptions *badger.Options

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// NewBadgerMetadataStore opens (or creates) a BadgerDB metadata store.
//
// Parameters:
//   - ctx: Context for cancellation
//   - config: Configuration including DB path and cache sizes
//
// Returns:
//   - *BadgerMetadataStore: A new store instance ready for use
//   - error: Error if the database cannot be opened or the context is cancelled
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		opts = badger.DefaultOptions(config.DBPath)
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None) // records are small JSON

		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 64
		}
		indexCacheMB := config.IndexCacheSizeMB
		if indexCacheMB == 0 {
			indexCacheMB = 32
		}

		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
		opts = opts.WithIndexCacheSize(indexCacheMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	dirSeq, err := db.GetSequence([]byte(keyDirectorySequence), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open directory sequence: %w", err)
	}

	fileSeq, err := db.GetSequence([]byte(keyFileSequence), sequenceBandwidth)
	if err != nil {
		_ = dirSeq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("failed to open file sequence: %w", err)
	}

	logger.Debug("BadgerDB metadata store opened at %s", config.DBPath)

	return &BadgerMetadataStore{
		db:      db,
		dirSeq:  dirSeq,
		fileSeq: fileSeq,
		now:     time.Now,
	}, nil
}

// NewBadgerMetadataStoreWithDefaults opens a store at dbPath with default options.
func NewBadgerMetadataStoreWithDefaults(ctx context.Context, dbPath string) (*BadgerMetadataStore, error) {
	return NewBadgerMetadataStore(ctx, BadgerMetadataStoreConfig{DBPath: dbPath})
}

// Close releases the ID sequences and closes the database.
func (s *BadgerMetadataStore) Close() error {
	var errs []error
	if err := s.dirSeq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release directory sequence: %w", err))
	}
	if err := s.fileSeq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release file sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close BadgerDB: %w", err))
	}
	return errors.Join(errs...)
}

// Healthcheck verifies the database can start a read transaction.
func (s *BadgerMetadataStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// nextID returns the next value of seq, skipping 0 which means "unsaved".
func nextID(seq *badger.Sequence) (uint64, error) {
	id, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	return id + 1, nil
}

// ============================================================================
// Transaction helpers
// ============================================================================

func getDirectoryData(txn *badger.Txn, id uint64) (*directoryData, error) {
	item, err := txn.Get(keyDirectory(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.NewDirectoryNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directory %d: %w", id, err)
	}

	var data *directoryData
	err = item.Value(func(val []byte) error {
		data, err = decodeDirectoryData(val)
		return err
	})
	return data, err
}

func putDirectoryData(txn *badger.Txn, data *directoryData) error {
	bytes, err := encodeDirectoryData(data)
	if err != nil {
		return err
	}
	return txn.Set(keyDirectory(data.ID), bytes)
}

// touchDirectory rewrites a directory record unchanged so that concurrent
// transactions which read it conflict at commit.
func touchDirectory(txn *badger.Txn, id uint64) error {
	data, err := getDirectoryData(txn, id)
	if err != nil {
		return err
	}
	return putDirectoryData(txn, data)
}

func getFileData(txn *badger.Txn, id uint64) (*fileData, error) {
	item, err := txn.Get(keyFile(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.NewFileNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %d: %w", id, err)
	}

	var data *fileData
	err = item.Value(func(val []byte) error {
		data, err = decodeFileData(val)
		return err
	})
	return data, err
}

func putFileData(txn *badger.Txn, data *fileData) error {
	bytes, err := encodeFileData(data)
	if err != nil {
		return err
	}
	return txn.Set(keyFile(data.ID), bytes)
}

// listChildIDs returns the IDs under a child index prefix in ascending order.
func listChildIDs(txn *badger.Txn, prefix []byte) []uint64 {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []uint64
	for it.Rewind(); it.Valid(); it.Next() {
		ids = append(ids, childIDFromKey(it.Item().Key()))
	}
	return ids
}

// scanPrefix decodes every value under prefix in key order.
func scanPrefix(ctx context.Context, txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	count := 0
	for it.Rewind(); it.Valid(); it.Next() {
		// Check context periodically
		if count%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		count++

		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Reader
// ============================================================================

// txnReader implements metadata.Reader over an open transaction.
type txnReader struct {
	txn *badger.Txn
}

func (r txnReader) GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := getDirectoryData(r.txn, id)
	if err != nil {
		return nil, err
	}
	return data.toDirectory(), nil
}

func (r txnReader) ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := getDirectoryData(r.txn, id); err != nil {
		return nil, err
	}

	ids := listChildIDs(r.txn, keyChildDirPrefix(id))
	out := make([]*metadata.Directory, 0, len(ids))
	for _, childID := range ids {
		data, err := getDirectoryData(r.txn, childID)
		if err != nil {
			return nil, err
		}
		out = append(out, data.toDirectory())
	}
	return out, nil
}

func (r txnReader) ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := getDirectoryData(r.txn, directoryID); err != nil {
		return nil, err
	}

	ids := listChildIDs(r.txn, keyChildFilePrefix(directoryID))
	out := make([]*metadata.File, 0, len(ids))
	for _, fileID := range ids {
		data, err := getFileData(r.txn, fileID)
		if err != nil {
			return nil, err
		}
		out = append(out, data.toFile())
	}
	return out, nil
}

// View runs fn inside a read-only transaction.
func (s *BadgerMetadataStore) View(ctx context.Context, fn func(r metadata.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(txnReader{txn: txn})
	})
}

func (s *BadgerMetadataStore) GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error) {
	var dir *metadata.Directory
	err := s.View(ctx, func(r metadata.Reader) error {
		var err error
		dir, err = r.GetDirectory(ctx, id)
		return err
	})
	return dir, err
}

func (s *BadgerMetadataStore) ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error) {
	var dirs []*metadata.Directory
	err := s.View(ctx, func(r metadata.Reader) error {
		var err error
		dirs, err = r.ListSubdirectories(ctx, id)
		return err
	})
	return dirs, err
}

func (s *BadgerMetadataStore) ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error) {
	var files []*metadata.File
	err := s.View(ctx, func(r metadata.Reader) error {
		var err error
		files, err = r.ListFiles(ctx, directoryID)
		return err
	})
	return files, err
}

var _ metadata.Store = (*BadgerMetadataStore)(nil)
