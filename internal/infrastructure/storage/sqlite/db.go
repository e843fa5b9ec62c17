// Package sqlite provides a single-file storage backend for the dispatch
// service, used by the operator CLI and by integration tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DSN builds the connection string for path.
//
// Every transaction starts with BEGIN IMMEDIATE, so a writer holds the
// database write lock from its first statement; others wait up to the
// busy timeout.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(10000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// Open opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := Bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap creates tables and indexes if missing.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}

const entityColumns = `
  id         TEXT PRIMARY KEY,
  version    INTEGER NOT NULL DEFAULT 1,
  created_at TIMESTAMP NOT NULL,
  created_by TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP NOT NULL,
  updated_by TEXT NOT NULL DEFAULT '',
  deleted_at TIMESTAMP,
  deleted_by TEXT NOT NULL DEFAULT '',`

var schema = []string{
	`CREATE TABLE IF NOT EXISTS agencies (` + entityColumns + `
  acronym   TEXT NOT NULL DEFAULT '',
  name      TEXT NOT NULL,
  main_logo BLOB
);`,
	`CREATE TABLE IF NOT EXISTS extraction_units (` + entityColumns + `
  agency_id         TEXT REFERENCES agencies(id),
  acronym           TEXT NOT NULL DEFAULT '',
  name              TEXT NOT NULL,
  incharge_name     TEXT NOT NULL DEFAULT '',
  incharge_position TEXT NOT NULL DEFAULT ''
);`,
	`CREATE TABLE IF NOT EXISTS agency_units (` + entityColumns + `
  agency_id TEXT REFERENCES agencies(id),
  acronym   TEXT NOT NULL DEFAULT '',
  name      TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS dispatch_sequences (
  extraction_unit_id TEXT NOT NULL REFERENCES extraction_units(id),
  year               INTEGER NOT NULL,
  last_number        INTEGER NOT NULL DEFAULT 0 CHECK (last_number >= 0),
  created_at         TIMESTAMP NOT NULL,
  updated_at         TIMESTAMP NOT NULL,
  PRIMARY KEY (extraction_unit_id, year)
);`,
	`CREATE TABLE IF NOT EXISTS dispatch_templates (` + entityColumns + `
  extraction_unit_id TEXT NOT NULL REFERENCES extraction_units(id),
  name               TEXT NOT NULL,
  description        TEXT NOT NULL DEFAULT '',
  content            BLOB,
  content_filename   TEXT NOT NULL DEFAULT '',
  header_text        TEXT NOT NULL DEFAULT '',
  subject_text       TEXT NOT NULL DEFAULT '',
  body_text          TEXT NOT NULL DEFAULT '',
  signature_text     TEXT NOT NULL DEFAULT '',
  watermark_text     TEXT NOT NULL DEFAULT '',
  footer_text        TEXT NOT NULL DEFAULT '',
  is_active          INTEGER NOT NULL DEFAULT 1,
  is_default         INTEGER NOT NULL DEFAULT 0
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS dispatch_templates_one_default
  ON dispatch_templates (extraction_unit_id) WHERE is_default = 1 AND deleted_at IS NULL;`,
	`CREATE TABLE IF NOT EXISTS cases (` + entityColumns + `
  number                   TEXT NOT NULL DEFAULT '',
  status                   TEXT NOT NULL DEFAULT 'draft',
  extraction_unit_id       TEXT REFERENCES extraction_units(id),
  requester_agency_unit_id TEXT REFERENCES agency_units(id),
  finished_at              TIMESTAMP,
  finished_by              TEXT NOT NULL DEFAULT '',
  dispatch_number          TEXT NOT NULL DEFAULT '',
  dispatch_date            TIMESTAMP,
  dispatch_file            BLOB,
  dispatch_filename        TEXT NOT NULL DEFAULT '',
  dispatch_content_type    TEXT NOT NULL DEFAULT ''
);`,
	`CREATE TABLE IF NOT EXISTS sys_audit (
  id          TEXT PRIMARY KEY,
  entity_type TEXT NOT NULL,
  entity_id   TEXT NOT NULL,
  action      TEXT NOT NULL,
  user_id     TEXT NOT NULL DEFAULT '',
  user_email  TEXT NOT NULL DEFAULT '',
  source      TEXT NOT NULL DEFAULT '',
  changes     JSON,
  created_at  TIMESTAMP NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS sys_outbox (
  id             TEXT PRIMARY KEY,
  aggregate_type TEXT NOT NULL,
  aggregate_id   TEXT NOT NULL,
  event_type     TEXT NOT NULL,
  payload        JSON NOT NULL,
  status         TEXT NOT NULL DEFAULT 'pending',
  retry_count    INTEGER NOT NULL DEFAULT 0,
  created_at     TIMESTAMP NOT NULL
);`,
}
