// Package store persists chunks and their verification hashes in a single
// shared SQLite database. It owns the one *sql.DB connection the core
// writes through and the mutex that serializes multi-statement sequences.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

// DB wraps the shared SQLite connection and the mutex guarding
// transactional sequences across the chunks and chunk_hashes tables (I5).
type DB struct {
	mu   sync.Mutex
	conn *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path in WAL
// mode and initializes the chunks and chunk_hashes schema. An empty path
// opens a private in-memory database, used by tests.
func Open(path string) (*DB, error) {
	dsn := ":memory:"
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has one writer; a wider pool just adds lock contention.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	line_start INTEGER NOT NULL,
	line_end INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding_json TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);

CREATE TABLE IF NOT EXISTS chunk_hashes (
	chunk_id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	hash TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	provenance_json TEXT NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	last_accessed TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunk_hashes_path ON chunk_hashes(path);
CREATE INDEX IF NOT EXISTS idx_chunk_hashes_hash ON chunk_hashes(hash);
`

func (d *DB) initSchema() error {
	_, err := d.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// withLock runs fn while holding the connection mutex, matching every
// other transactional unit in the package so multi-statement sequences
// never interleave (I5).
func (d *DB) withLock(fn func(conn *sql.DB) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.conn)
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}
