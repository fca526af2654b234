package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is stored in PRAGMA user_version. Bump it whenever a table
// definition changes; older files are then rejected with ErrSchemaMismatch.
const schemaVersion = 3

const (
	// FileName is the index file name inside the system directory.
	FileName = "index.sqlite"

	defaultBusyTimeout = 5 * time.Second
)

// Options configure Open.
type Options struct {
	// BusyTimeout bounds how long a write waits for another process holding
	// the database lock. Zero uses five seconds.
	BusyTimeout time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// ColorFor returns the display color for a tag category. Used when a tag
	// is added without an explicit color.
	ColorFor func(category string) string
	// DisableFTS forces the LIKE fallback even when FTS5 is compiled in.
	DisableFTS bool
}

// Store is the index database. It is safe for concurrent use: writes are
// serialized in process, reads run in parallel under WAL.
type Store struct {
	db       *sql.DB
	path     string
	fts      bool
	now      func() time.Time
	colorFor func(string) string

	writeMu sync.Mutex
	events  broker
}

// PathFor returns the index file location for a library root.
func PathFor(root, systemDir string) string {
	return filepath.Join(root, systemDir, FileName)
}

// Open opens or creates the index at path. A file with a different schema
// version yields ErrSchemaMismatch and an unreadable one ErrStoreCorrupt; in
// both cases the caller removes the file with Remove and rebuilds.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ColorFor == nil {
		opts.ColorFor = func(string) string { return "" }
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping index: %w", classify(err))
	}

	s := &Store{
		db:       db,
		path:     path,
		now:      opts.Now,
		colorFor: opts.ColorFor,
	}

	if err := s.checkIntegrity(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if !opts.DisableFTS {
		s.fts, err = s.enableFTS(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// dsn builds the connection string. Every connection gets the same pragmas;
// write transactions start IMMEDIATE so lock waits happen at BEGIN under
// busy_timeout instead of failing at the first write. The path is escaped,
// so folder names containing '?', '#' or '%' reach SQLite unchanged.
func dsn(path string, busy time.Duration) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busy.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: q.Encode()}
	return u.String()
}

// Remove deletes the index file together with its WAL side files.
func Remove(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// FTSEnabled reports whether searches are served by FTS5.
func (s *Store) FTSEnabled() bool {
	return s.fts
}

func (s *Store) checkIntegrity(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		err = classify(err)
		if errors.Is(err, ErrStoreCorrupt) {
			return err
		}
		return fmt.Errorf("failed to check index integrity: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", ErrStoreCorrupt, result)
	}
	return nil
}

// migrate creates the schema on a fresh file and verifies the version of an
// existing one.
func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", classify(err))
	}
	if version != 0 && version != schemaVersion {
		return fmt.Errorf("%w: file has version %d, want %d", ErrSchemaMismatch, version, schemaVersion)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			customer TEXT NOT NULL DEFAULT '',
			customer_code TEXT NOT NULL DEFAULT '',
			part_number TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			cover_image TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			tags_json TEXT NOT NULL DEFAULT '[]',
			create_time TEXT NOT NULL,
			month TEXT NOT NULL,
			project_dir TEXT NOT NULL,
			fingerprint TEXT NOT NULL DEFAULT '',
			pinned INTEGER NOT NULL DEFAULT 0,
			last_open_time TEXT,
			open_count INTEGER NOT NULL DEFAULT 0,
			indexed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_month ON projects(month);`,
		`CREATE TABLE IF NOT EXISTS project_files (
			project_id TEXT NOT NULL,
			rel_path TEXT NOT NULL,
			file_name TEXT NOT NULL,
			is_dir INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (project_id, rel_path),
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS item_tags (
			project_id TEXT NOT NULL,
			rel_path TEXT NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (project_id, rel_path, tag),
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag);`,
		`CREATE TABLE IF NOT EXISTS file_tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			project_id TEXT NOT NULL,
			tag_name TEXT NOT NULL,
			category TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL CHECK (source IN ('auto', 'manual')),
			created_time TEXT NOT NULL,
			UNIQUE (file_path, tag_name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_file_tags_project ON file_tags(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_file_tags_name ON file_tags(tag_name);`,
		`CREATE TABLE IF NOT EXISTS disabled_auto_tags (
			file_path TEXT NOT NULL,
			tag_name TEXT NOT NULL,
			disabled_time TEXT NOT NULL,
			PRIMARY KEY (file_path, tag_name)
		);`,
		`CREATE TABLE IF NOT EXISTS external_resources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT,
			resource_type TEXT NOT NULL,
			root_path TEXT NOT NULL,
			folder_year INTEGER NOT NULL DEFAULT 0,
			folder_date TEXT NOT NULL DEFAULT '',
			folder_name TEXT NOT NULL,
			full_path TEXT NOT NULL UNIQUE,
			match_score INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_external_resources_project ON external_resources(project_id, status);`,
		`CREATE TABLE IF NOT EXISTS file_notes (
			file_path TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			content TEXT NOT NULL,
			plain_text TEXT NOT NULL DEFAULT '',
			create_time TEXT NOT NULL,
			update_time TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_file_notes_project ON file_notes(project_id);`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion),
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate index: %w", classify(err))
		}
	}
	return nil
}

// enableFTS creates the FTS5 table. A driver built without FTS5 reports
// "no such module", in which case the LIKE fallback is used.
func (s *Store) enableFTS(ctx context.Context) (bool, error) {
	_, err := s.db.ExecContext(ctx, `CREATE VIRTUAL TABLE IF NOT EXISTS project_fts USING fts5(
		id UNINDEXED,
		name,
		customer,
		part_number,
		tags,
		description,
		notes,
		item_tags,
		files,
		tokenize = 'unicode61'
	);`)
	if err == nil {
		return true, nil
	}
	if strings.Contains(err.Error(), "no such module") {
		return false, nil
	}
	return false, fmt.Errorf("failed to create fts table: %w", classify(err))
}

// write runs fn in one write transaction under the in-process writer lock.
func (s *Store) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) nowString() string {
	return formatTime(s.now())
}

const timeLayout = "2006-01-02T15:04:05"

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.ParseInLocation(timeLayout, v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
