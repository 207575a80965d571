// Package sqlite is the SQLite store driver, intended for development and
// tests where running PostgreSQL is inconvenient.
//
// Policy:
//   - Conversation, message and summary storage is fully supported.
//   - Embeddings are stored as JSON text and vector search is a brute-force
//     in-process cosine scan. Fine for dev-scale data, not for production.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"
	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/internal/profile"
	"github.com/hrygo/mnemos/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database with the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS conversation (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL DEFAULT '',
		folder TEXT NOT NULL DEFAULT '/',
		status TEXT NOT NULL DEFAULT 'active',
		importance_score INTEGER NOT NULL DEFAULT 5,
		word_count INTEGER NOT NULL DEFAULT 0,
		session_count INTEGER NOT NULL DEFAULT 1,
		pinned INTEGER NOT NULL DEFAULT 0,
		created_ts INTEGER NOT NULL,
		updated_ts INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS message (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		ts INTEGER NOT NULL,
		embedding_id TEXT,
		metadata TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id)`,
	`CREATE TABLE IF NOT EXISTS message_embedding (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL REFERENCES message (id) ON DELETE CASCADE,
		model TEXT NOT NULL,
		embedding TEXT NOT NULL,
		created_ts INTEGER NOT NULL,
		updated_ts INTEGER NOT NULL,
		UNIQUE (message_id, model)
	)`,
	`CREATE TABLE IF NOT EXISTS summary (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
		level TEXT NOT NULL,
		summary_text TEXT NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		generated_ts INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_label ON conversation (label)`,
}

// Migrate applies the latest schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to execute migration")
		}
	}
	return nil
}

func limitClause(query string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	return query
}
