package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

func (d *DB) UpsertMessageEmbedding(ctx context.Context, upsert *store.MessageEmbedding) (*store.MessageEmbedding, error) {
	value, err := json.Marshal(upsert.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal embedding")
	}
	now := time.Now().Unix()

	stmt := `INSERT INTO message_embedding (message_id, model, embedding, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (message_id, model) DO UPDATE SET embedding = excluded.embedding, updated_ts = excluded.updated_ts
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.MessageID,
		upsert.Model,
		string(value),
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
		LEFT JOIN message_embedding e ON e.message_id = m.id AND e.model = ?
		WHERE e.id IS NULL AND m.content != ''
		ORDER BY m.ts ASC, m.id ASC`
	query = limitClause(query, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, find.Model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find messages without embedding")
	}
	defer rows.Close()

	return scanMessages(rows)
}

// VectorSearch loads all embeddings for the model and ranks them by cosine
// similarity in process. See the package policy note.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.SearchResult, error) {
	query := `SELECT m.id, m.conversation_id, e.embedding, m.content, c.label, c.folder, m.ts, m.metadata
		FROM message_embedding e
		JOIN message m ON m.id = e.message_id
		JOIN conversation c ON c.id = m.conversation_id
		WHERE e.model = ?`

	rows, err := d.db.QueryContext(ctx, query, opts.Model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load embeddings")
	}
	defer rows.Close()

	excluded := func(folder string) bool {
		for _, prefix := range opts.ExcludedFolders {
			if folder == prefix || len(folder) > len(prefix) && folder[:len(prefix)+1] == prefix+"/" {
				return true
			}
		}
		return false
	}

	list := []*store.SearchResult{}
	for rows.Next() {
		result := &store.SearchResult{}
		var embedding, content string
		var metadata sql.NullString
		var ts int64
		if err := rows.Scan(
			&result.MessageID,
			&result.ConversationID,
			&embedding,
			&content,
			&result.Label,
			&result.Folder,
			&ts,
			&metadata,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan embedding row")
		}
		if excluded(result.Folder) {
			continue
		}
		var vector []float32
		if err := json.Unmarshal([]byte(embedding), &vector); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal embedding")
		}
		result.Score = cosineSimilarity(opts.Vector, vector)
		result.Content = content
		result.Timestamp = time.Unix(0, ts)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &result.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal search result metadata")
			}
		}
		list = append(list, result)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate embeddings")
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
	if len(list) > opts.Limit {
		list = list[:opts.Limit]
	}
	return list, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
