package sqldb

// Dialect selects the SQL engine behind an SQLMetadataStore.
type Dialect string

const (
	// DialectSQLite uses github.com/mattn/go-sqlite3. Foreign keys are
	// enforced and subtree deletes rely on ON DELETE CASCADE.
	DialectSQLite Dialect = "sqlite"

	// DialectDuckDB uses github.com/marcboeker/go-duckdb. DuckDB has no
	// cascading foreign keys, so subtree deletes walk the tree explicitly.
	DialectDuckDB Dialect = "duckdb"
)

// driverName returns the database/sql driver name for the dialect.
func (d Dialect) driverName() string {
	switch d {
	case DialectDuckDB:
		return "duckdb"
	default:
		return "sqlite3"
	}
}

// dsn builds the connection string for a database file.
//
// SQLite: foreign keys on, BEGIN IMMEDIATE for every transaction so the
// write lock is taken before any check runs, and a busy timeout instead of
// failing immediately on lock contention.
func (d Dialect) dsn(path string) string {
	switch d {
	case DialectDuckDB:
		return path
	default:
		return "file:" + path + "?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
	}
}

// nativeCascade reports whether deleting a directory row removes its
// subtree through the schema.
func (d Dialect) nativeCascade() bool {
	return d == DialectSQLite
}

// schema returns the DDL statements for the dialect, executed one at a time.
func (d Dialect) schema() []string {
	switch d {
	case DialectDuckDB:
		// No foreign keys and no secondary indexes: DuckDB rewrites updates of
		// indexed columns as delete+insert, which trips its eager constraint
		// checks when a directory is moved. Integrity is kept by the store's
		// transactions instead.
		return []string{
			`CREATE SEQUENCE IF NOT EXISTS directories_id_seq START 1`,
			`CREATE SEQUENCE IF NOT EXISTS files_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS directories (
				id         BIGINT PRIMARY KEY DEFAULT nextval('directories_id_seq'),
				name       VARCHAR NOT NULL,
				parent_id  BIGINT,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS files (
				id           BIGINT PRIMARY KEY DEFAULT nextval('files_id_seq'),
				name         VARCHAR NOT NULL,
				directory_id BIGINT NOT NULL,
				content_id   VARCHAR NOT NULL,
				size         BIGINT NOT NULL DEFAULT 0,
				content_type VARCHAR NOT NULL DEFAULT '',
				created_at   TIMESTAMP NOT NULL,
				updated_at   TIMESTAMP NOT NULL
			)`,
		}
	default:
		// AUTOINCREMENT guarantees IDs are never reused after a delete.
		return []string{
			`CREATE TABLE IF NOT EXISTS directories (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				name       TEXT NOT NULL,
				parent_id  INTEGER NULL REFERENCES directories(id) ON DELETE CASCADE,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_directories_parent_id ON directories(parent_id)`,
			`CREATE TABLE IF NOT EXISTS files (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				name         TEXT NOT NULL,
				directory_id INTEGER NOT NULL REFERENCES directories(id) ON DELETE CASCADE,
				content_id   TEXT NOT NULL,
				size         INTEGER NOT NULL DEFAULT 0,
				content_type TEXT NOT NULL DEFAULT '',
				created_at   TIMESTAMP NOT NULL,
				updated_at   TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_files_directory_id ON files(directory_id)`,
		}
	}
}
