// Package ledger provides the durable deduplication store: an append-only
// record of every posting ever ingested, keyed by (canonical key, search
// context, candidate context), plus a history of ingestion runs.
//
// The store is an embedded SQLite database opened with a single-writer
// discipline. The UNIQUE constraint on seen_postings is the final arbiter of
// duplication; callers never rely on a prior Exists check alone.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Schema creates the ledger tables. seen_postings rows are never updated or
// deleted; ingestion_runs is append-only.
const Schema = `
CREATE TABLE IF NOT EXISTS seen_postings (
    id                INTEGER PRIMARY KEY,
    canonical_key     TEXT NOT NULL,
    full_reference    TEXT NOT NULL,
    site_local_id     TEXT,
    search_context    TEXT NOT NULL,
    candidate_context TEXT NOT NULL,
    raw_attributes    TEXT,
    first_seen_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    UNIQUE (canonical_key, search_context, candidate_context)
);

CREATE TABLE IF NOT EXISTS ingestion_runs (
    id                INTEGER PRIMARY KEY,
    run_id            TEXT NOT NULL,
    search_context    TEXT NOT NULL,
    candidate_context TEXT NOT NULL,
    page_number       INTEGER NOT NULL,
    items_seen        INTEGER NOT NULL,
    items_new         INTEGER NOT NULL,
    items_duplicate   INTEGER NOT NULL,
    items_skipped     INTEGER NOT NULL DEFAULT 0,
    terminated_early  INTEGER NOT NULL DEFAULT 0,
    started_at        TEXT NOT NULL,
    finished_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingestion_runs_run_id ON ingestion_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_ingestion_runs_search ON ingestion_runs(search_context);
`

// Store wraps the embedded SQLite ledger database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path, applies the
// production pragmas, and ensures the schema exists. Parent directories are
// created as needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ledger: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}

	// Single-writer discipline: one connection, WAL for crash safety.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory ledger for testing and registers cleanup.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("ledger.OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
