package process

import (
	"context"
	"errors"
	"fmt"
)

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases must be cleared after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const schemaSQL = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE processes (
    id          TEXT PRIMARY KEY,
    stage       TEXT NOT NULL,
    stage_label TEXT,
    progress    REAL NOT NULL DEFAULT 0,
    completed   INTEGER NOT NULL DEFAULT 0,
    result_ref  TEXT,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE process_payloads (
    process_id            TEXT PRIMARY KEY REFERENCES processes(id) ON DELETE CASCADE,
    topic                 TEXT,
    style                 TEXT,
    duration              TEXT,
    prayer_type           TEXT,
    language              TEXT,
    notes                 TEXT,
    generate_image        INTEGER NOT NULL DEFAULT 0,
    generate_short        INTEGER,
    generate_audio        INTEGER NOT NULL DEFAULT 1,
    await_title_selection INTEGER NOT NULL DEFAULT 0,
    title                 TEXT,
    titles_json           TEXT,
    content               TEXT,
    short_content         TEXT,
    description           TEXT,
    image_prompt          TEXT,
    image_ref             TEXT,
    audio_ref             TEXT
);

CREATE INDEX idx_processes_stage ON processes(stage);
CREATE INDEX idx_processes_created ON processes(created_at);
`

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
