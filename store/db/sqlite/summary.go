package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/mnemos/store"
)

func (d *DB) CreateSummary(ctx context.Context, create *store.Summary) (*store.Summary, error) {
	stmt := `INSERT INTO summary (id, conversation_id, level, summary_text, token_count, generated_ts)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.ConversationID,
		create.Level,
		create.SummaryText,
		create.TokenCount,
		create.GeneratedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create summary: %w", err)
	}
	return create, nil
}

func (d *DB) ListSummaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}
	if find.Level != nil {
		where, args = append(where, "level = ?"), append(args, *find.Level)
	}
	if find.GeneratedAfter != nil {
		where, args = append(where, "generated_ts >= ?"), append(args, *find.GeneratedAfter)
	}

	query := `SELECT id, conversation_id, level, summary_text, token_count, generated_ts
		FROM summary
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY generated_ts DESC, id ASC`
	query = limitClause(query, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	list := []*store.Summary{}
	for rows.Next() {
		summary := &store.Summary{}
		if err := rows.Scan(
			&summary.ID,
			&summary.ConversationID,
			&summary.Level,
			&summary.SummaryText,
			&summary.TokenCount,
			&summary.GeneratedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		list = append(list, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return list, nil
}
