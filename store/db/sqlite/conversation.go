package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mnemos/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := `INSERT INTO conversation (id, uid, label, folder, status, importance_score, word_count, session_count, pinned, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.UID,
		create.Label,
		create.Folder,
		create.Status,
		create.ImportanceScore,
		create.WordCount,
		create.SessionCount,
		create.Pinned,
		create.CreatedTs,
		create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.Label != nil {
		where, args = append(where, "label = ?"), append(args, *find.Label)
	}
	if find.Folder != nil {
		where, args = append(where, "(folder = ? OR folder LIKE ?)"), append(args, *find.Folder, *find.Folder+"/%")
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, *find.Status)
	}
	if find.Pinned != nil {
		where, args = append(where, "pinned = ?"), append(args, *find.Pinned)
	}
	if find.UpdatedBefore != nil {
		where, args = append(where, "updated_ts < ?"), append(args, *find.UpdatedBefore)
	}
	if find.UpdatedAfter != nil {
		where, args = append(where, "updated_ts >= ?"), append(args, *find.UpdatedAfter)
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
		set, args = append(set, "label = ?"), append(args, *update.Label)
	}
	if update.Folder != nil {
		set, args = append(set, "folder = ?"), append(args, *update.Folder)
	}
	if update.Status != nil {
		set, args = append(set, "status = ?"), append(args, *update.Status)
	}
	if update.ImportanceScore != nil {
		set, args = append(set, "importance_score = ?"), append(args, *update.ImportanceScore)
	}
	if update.WordCount != nil {
		set, args = append(set, "word_count = ?"), append(args, *update.WordCount)
	}
	if update.SessionCount != nil {
		set, args = append(set, "session_count = ?"), append(args, *update.SessionCount)
	}
	if update.Pinned != nil {
		set, args = append(set, "pinned = ?"), append(args, *update.Pinned)
	}
	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := "UPDATE conversation SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	list, err := d.ListConversations(ctx, &store.FindConversation{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(store.ErrNotFound, "conversation %s", update.ID)
	}
	return list[0], nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM conversation WHERE id = ?", delete.ID); err != nil {
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
