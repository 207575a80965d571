package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/mnemos/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	metadata, err := marshalMetadata(create.Metadata)
	if err != nil {
		return nil, err
	}

	stmt := `INSERT INTO message (id, conversation_id, role, content, ts, embedding_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.ConversationID,
		create.Role,
		create.Content,
		create.Timestamp.UnixNano(),
		create.EmbeddingID,
		metadata,
	); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}
	if find.After != nil {
		where, args = append(where, "ts >= ?"), append(args, find.After.UnixNano())
	}

	query := `SELECT id, conversation_id, role, content, ts, embedding_id, metadata
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ts ASC, id ASC`
	query = limitClause(query, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (d *DB) FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]*store.Message, error) {
	query := `SELECT id, conversation_id, role, content, ts, embedding_id, metadata
		FROM message
		WHERE conversation_id = ?
		ORDER BY ts DESC, id ASC`
	query = limitClause(query, limit)

	rows, err := d.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (d *DB) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message WHERE conversation_id = ?", conversationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func (d *DB) UpdateMessageMetadata(ctx context.Context, id string, metadata map[string]any) error {
	value, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, "UPDATE message SET metadata = ? WHERE id = ?", value, id); err != nil {
		return fmt.Errorf("failed to update message metadata: %w", err)
	}
	return nil
}

func (d *DB) ListPinnedMessages(ctx context.Context) ([]*store.LabeledMessage, error) {
	query := `SELECT m.id, m.conversation_id, m.role, m.content, m.ts, m.embedding_id, m.metadata, c.label, c.pinned, c.importance_score
		FROM message m
		JOIN conversation c ON c.id = m.conversation_id
		WHERE c.pinned = 1
		ORDER BY m.ts DESC, m.id ASC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned messages: %w", err)
	}
	defer rows.Close()

	return scanLabeledMessages(rows)
}

func (d *DB) ListRecentLabeledMessages(ctx context.Context, labels []string, updatedAfter int64) ([]*store.LabeledMessage, error) {
	args := []any{}
	for _, label := range labels {
		args = append(args, label)
	}
	args = append(args, updatedAfter)

	query := `SELECT m.id, m.conversation_id, m.role, m.content, m.ts, m.embedding_id, m.metadata, c.label, c.pinned, c.importance_score
		FROM message m
		JOIN conversation c ON c.id = m.conversation_id
		WHERE c.label IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(labels)), ", ") + `) AND c.updated_ts >= ?
		ORDER BY m.ts DESC, m.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list labeled messages: %w", err)
	}
	defer rows.Close()

	return scanLabeledMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	list := []*store.Message{}
	for rows.Next() {
		message, err := scanMessage(rows, nil)
		if err != nil {
			return nil, err
		}
		list = append(list, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return list, nil
}

func scanLabeledMessages(rows *sql.Rows) ([]*store.LabeledMessage, error) {
	list := []*store.LabeledMessage{}
	for rows.Next() {
		labeled := &store.LabeledMessage{}
		message, err := scanMessage(rows, labeled)
		if err != nil {
			return nil, err
		}
		labeled.Message = message
		list = append(list, labeled)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return list, nil
}

func scanMessage(rows *sql.Rows, labeled *store.LabeledMessage) (*store.Message, error) {
	message := &store.Message{}
	var ts int64
	var metadata sql.NullString
	dests := []any{
		&message.ID,
		&message.ConversationID,
		&message.Role,
		&message.Content,
		&ts,
		&message.EmbeddingID,
		&metadata,
	}
	if labeled != nil {
		dests = append(dests, &labeled.Label, &labeled.Pinned, &labeled.Importance)
	}
	if err := rows.Scan(dests...); err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	message.Timestamp = time.Unix(0, ts)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &message.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
		}
	}
	return message, nil
}

func marshalMetadata(metadata map[string]any) (any, error) {
	if metadata == nil {
		return nil, nil
	}
	value, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message metadata: %w", err)
	}
	return string(value), nil
}
