package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

func (d *DB) UpsertMessageEmbedding(ctx context.Context, upsert *store.MessageEmbedding) (*store.MessageEmbedding, error) {
	vector := pgvector.NewVector(upsert.Embedding)
	now := time.Now().Unix()

	stmt := `INSERT INTO message_embedding (message_id, model, embedding, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id, model) DO UPDATE SET embedding = EXCLUDED.embedding, updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.MessageID,
		upsert.Model,
		vector,
		now,
		now,
	).Scan(&upsert.ID, &upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert message embedding")
	}
	return upsert, nil
}

func (d *DB) FindMessagesWithoutEmbedding(ctx context.Context, find *store.FindMessagesWithoutEmbedding) ([]*store.Message, error) {
	query := `SELECT m.id, m.conversation_id, m.role, m.content, m.ts, m.embedding_id, m.metadata
		FROM message m
		LEFT JOIN message_embedding e ON e.message_id = m.id AND e.model = $1
		WHERE e.id IS NULL AND m.content != ''
		ORDER BY m.ts ASC, m.id ASC`
	if find.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, find.Model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find messages without embedding")
	}
	defer rows.Close()

	return scanMessages(rows)
}

// VectorSearch performs cosine similarity search over message embeddings.
// Results are joined with the owning conversation and ordered by descending
// similarity score in [0, 1].
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.SearchResult, error) {
	vector := pgvector.NewVector(opts.Vector)
	args := []any{vector, opts.Model}

	where := []string{"e.model = $2"}
	for _, folder := range opts.ExcludedFolders {
		args = append(args, folder, folder+"/%")
		where = append(where, fmt.Sprintf("c.folder != %s AND c.folder NOT LIKE %s", placeholder(len(args)-1), placeholder(len(args))))
	}

	query := `SELECT m.id, m.conversation_id, 1 - (e.embedding <=> $1) AS score, m.content, c.label, c.folder, m.ts, m.metadata
		FROM message_embedding e
		JOIN message m ON m.id = e.message_id
		JOIN conversation c ON c.id = m.conversation_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.embedding <=> $1
		LIMIT ` + fmt.Sprintf("%d", opts.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run vector search")
	}
	defer rows.Close()

	list := []*store.SearchResult{}
	for rows.Next() {
		result := &store.SearchResult{}
		var metadata sql.NullString
		if err := rows.Scan(
			&result.MessageID,
			&result.ConversationID,
			&result.Score,
			&result.Content,
			&result.Label,
			&result.Folder,
			&result.Timestamp,
			&metadata,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &result.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal search result metadata")
			}
		}
		list = append(list, result)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate search results")
	}
	return list, nil
}
