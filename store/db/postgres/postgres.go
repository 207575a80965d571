// Package postgres is the PostgreSQL store driver. It is the primary driver:
// semantic search requires the pgvector extension.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/internal/profile"
	"github.com/hrygo/mnemos/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database with the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	pgDB.SetMaxOpenConns(25)
	pgDB.SetMaxIdleConns(5)

	driver := DB{db: pgDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationStmts = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS conversation (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL DEFAULT '',
		folder TEXT NOT NULL DEFAULT '/',
		status TEXT NOT NULL DEFAULT 'active',
		importance_score INTEGER NOT NULL DEFAULT 5,
		word_count INTEGER NOT NULL DEFAULT 0,
		session_count INTEGER NOT NULL DEFAULT 1,
		pinned BOOLEAN NOT NULL DEFAULT FALSE,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS message (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		embedding_id TEXT,
		metadata JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id)`,
	`CREATE TABLE IF NOT EXISTS message_embedding (
		id BIGSERIAL PRIMARY KEY,
		message_id TEXT NOT NULL REFERENCES message (id) ON DELETE CASCADE,
		model TEXT NOT NULL,
		embedding vector(1024) NOT NULL,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL,
		UNIQUE (message_id, model)
	)`,
	`CREATE TABLE IF NOT EXISTS summary (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
		level TEXT NOT NULL,
		summary_text TEXT NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		generated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_label ON conversation (label)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_status_updated ON conversation (status, updated_ts)`,
}

// Migrate applies the latest schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute migration: %s", firstLine(stmt))
		}
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
