package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	fields := []string{"id", "uid", "label", "folder", "status", "importance_score", "word_count", "session_count", "pinned", "created_ts", "updated_ts"}
	args := []any{create.ID, create.UID, create.Label, create.Folder, create.Status, create.ImportanceScore, create.WordCount, create.SessionCount, create.Pinned, create.CreatedTs, create.UpdatedTs}

	stmt := "INSERT INTO conversation (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ")"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Label != nil {
		where, args = append(where, "label = "+placeholder(len(args)+1)), append(args, *find.Label)
	}
	if find.Folder != nil {
		// Folder match includes subfolders: /work matches /work/infra.
		where, args = append(where, "(folder = "+placeholder(len(args)+1)+" OR folder LIKE "+placeholder(len(args)+2)+")"), append(args, *find.Folder, *find.Folder+"/%")
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}
	if find.Pinned != nil {
		where, args = append(where, "pinned = "+placeholder(len(args)+1)), append(args, *find.Pinned)
	}
	if find.UpdatedBefore != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *find.UpdatedBefore)
	}
	if find.UpdatedAfter != nil {
		where, args = append(where, "updated_ts >= "+placeholder(len(args)+1)), append(args, *find.UpdatedAfter)
	}

	query := `SELECT id, uid, label, folder, status, importance_score, word_count, session_count, pinned, created_ts, updated_ts
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id ASC`
	if find.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, find.Limit)
		if find.Offset > 0 {
			query = fmt.Sprintf("%s OFFSET %d", query, find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := []*store.Conversation{}
	for rows.Next() {
		conversation := &store.Conversation{}
		if err := rows.Scan(
			&conversation.ID,
			&conversation.UID,
			&conversation.Label,
			&conversation.Folder,
			&conversation.Status,
			&conversation.ImportanceScore,
			&conversation.WordCount,
			&conversation.SessionCount,
			&conversation.Pinned,
			&conversation.CreatedTs,
			&conversation.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}

	if update.Label != nil {
		set, args = append(set, "label = "+placeholder(len(args)+1)), append(args, *update.Label)
	}
	if update.Folder != nil {
		set, args = append(set, "folder = "+placeholder(len(args)+1)), append(args, *update.Folder)
	}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if update.ImportanceScore != nil {
		set, args = append(set, "importance_score = "+placeholder(len(args)+1)), append(args, *update.ImportanceScore)
	}
	if update.WordCount != nil {
		set, args = append(set, "word_count = "+placeholder(len(args)+1)), append(args, *update.WordCount)
	}
	if update.SessionCount != nil {
		set, args = append(set, "session_count = "+placeholder(len(args)+1)), append(args, *update.SessionCount)
	}
	if update.Pinned != nil {
		set, args = append(set, "pinned = "+placeholder(len(args)+1)), append(args, *update.Pinned)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE conversation SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, label, folder, status, importance_score, word_count, session_count, pinned, created_ts, updated_ts`
	conversation := &store.Conversation{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&conversation.ID,
		&conversation.UID,
		&conversation.Label,
		&conversation.Folder,
		&conversation.Status,
		&conversation.ImportanceScore,
		&conversation.WordCount,
		&conversation.SessionCount,
		&conversation.Pinned,
		&conversation.CreatedTs,
		&conversation.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(store.ErrNotFound, "conversation %s", update.ID)
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return conversation, nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	// Messages, embeddings and summaries go with it via ON DELETE CASCADE.
	if _, err := d.db.ExecContext(ctx, "DELETE FROM conversation WHERE id = $1", delete.ID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (d *DB) GetAllLabels(ctx context.Context) ([]string, error) {
	return d.listDistinct(ctx, "SELECT DISTINCT label FROM conversation WHERE label != '' ORDER BY label")
}

func (d *DB) GetAllFolders(ctx context.Context) ([]string, error) {
	return d.listDistinct(ctx, "SELECT DISTINCT folder FROM conversation WHERE folder != '' ORDER BY folder")
}

func (d *DB) listDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct values: %w", err)
	}
	defer rows.Close()

	list := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		list = append(list, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate values: %w", err)
	}
	return list, nil
}
