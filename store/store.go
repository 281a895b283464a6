// Package store is Falcon's backing-store layer: the two SQL tables
// (documents, indices) that back DocumentStore and IndexStore, opened
// over database/sql with the pure-Go modernc.org/sqlite driver. A
// Store is opened with sql.Open and migrated with CREATE TABLE IF NOT
// EXISTS against a single, fixed two-table schema.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/falcon-search/falcon/ferr"
)

// DefaultTokenPositionLimit is the buffer-flush threshold: the total
// count of positions buffered in memory across all pending posting
// lists before Indexer forces a flush.
const DefaultTokenPositionLimit = 5_000_000

// Config configures how a Store opens its backing file.
type Config struct {
	// Path is the SQLite file path. Ignored when InMemory is true.
	Path string

	// InMemory opens a ":memory:" database instead of Path.
	InMemory bool

	// TokenPositionLimit overrides DefaultTokenPositionLimit. Zero
	// means "use the default."
	TokenPositionLimit uint64

	// Logger receives debug trace lines. Defaults to NullLogger.
	Logger Logger
}

func (c Config) logger() Logger {
	if c.Logger == nil {
		return NullLogger{}
	}
	return c.Logger
}

func (c Config) tokenPositionLimit() uint64 {
	if c.TokenPositionLimit == 0 {
		return DefaultTokenPositionLimit
	}
	return c.TokenPositionLimit
}

// Store owns the *sql.DB handle shared by DocumentStore and IndexStore.
// The engine runs with journaling and synchronous writes disabled: a
// durability-for-speed trade-off the caller must accept, since a crash
// mid-ingest may leave the file inconsistent.
type Store struct {
	db     *sql.DB
	config Config
}

// Open opens (and, if necessary, migrates) the backing store described
// by config.
func Open(ctx context.Context, config Config) (*Store, error) {
	dsn := config.Path
	if config.InMemory || dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ferr.Storage("store.Open", err)
	}

	s := &Store{db: db, config: config}
	if err := s.pragma(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) pragma(ctx context.Context) error {
	for _, stmt := range []string{
		`PRAGMA journal_mode = OFF`,
		`PRAGMA synchronous = OFF`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ferr.Storage("store.pragma", err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS indices(
			token        TEXT PRIMARY KEY,
			posting_list BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents(
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			title   TEXT NOT NULL,
			content BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ferr.Storage("store.migrate", err)
		}
	}
	return nil
}

// DB returns the underlying *sql.DB, an escape hatch for callers that
// need direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Logger returns the configured debug logger.
func (s *Store) Logger() Logger {
	return s.config.logger()
}

// TokenPositionLimit returns the configured flush threshold.
func (s *Store) TokenPositionLimit() uint64 {
	return s.config.tokenPositionLimit()
}

// Close releases the backing connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return ferr.Storage("store.Close", err)
	}
	return nil
}

// FlushToFile copies both tables into a freshly attached on-disk
// database at path. It refuses rather than silently overwrites when
// the destination already holds rows in either table (see DESIGN.md).
func (s *Store) FlushToFile(ctx context.Context, path string) error {
	const alias = "falcon_flush_dst"

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ATTACH DATABASE ? AS %s`, alias), path); err != nil {
		return ferr.Storage("store.FlushToFile: attach", err)
	}
	defer s.db.ExecContext(ctx, fmt.Sprintf(`DETACH DATABASE %s`, alias))

	for _, stmt := range []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.indices(token TEXT PRIMARY KEY, posting_list BLOB NOT NULL)`, alias),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.documents(id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, content BLOB NOT NULL)`, alias),
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ferr.Storage("store.FlushToFile: create", err)
		}
	}

	for _, table := range []string{"indices", "documents"} {
		empty, err := s.tableEmpty(ctx, alias, table)
		if err != nil {
			return err
		}
		if !empty {
			return ferr.Storage("store.FlushToFile",
				fmt.Errorf("destination %q already contains rows in %q; refusing to overwrite", path, table))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ferr.Storage("store.FlushToFile: begin", err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.indices SELECT * FROM indices`, alias)); err != nil {
		tx.Rollback()
		return ferr.Storage("store.FlushToFile: copy indices", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.documents SELECT * FROM documents`, alias)); err != nil {
		tx.Rollback()
		return ferr.Storage("store.FlushToFile: copy documents", err)
	}

	if err := tx.Commit(); err != nil {
		return ferr.Storage("store.FlushToFile: commit", err)
	}
	return nil
}

func (s *Store) tableEmpty(ctx context.Context, alias, table string) (bool, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s.%s`, alias, table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return false, ferr.Storage("store.tableEmpty", err)
	}
	return count == 0, nil
}

// Wipe deletes all rows from both tables. This is destructive and
// non-transactional across the two tables: a failure between the two
// deletes can leave one table wiped and the other intact. Callers that
// require a fully clean slate must treat a Wipe failure as leaving the
// store in an unknown state.
func (s *Store) Wipe(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM indices`); err != nil {
		return ferr.Storage("store.Wipe: indices", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return ferr.Storage("store.Wipe: documents", err)
	}
	return nil
}
