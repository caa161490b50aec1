package database

import (
	"context"
	"fmt"
)

func (q *Queries) InsertMessage(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (id, match_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := q.db.ExecContext(ctx, query, m.ID, m.MatchID, m.SenderID, m.Content, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages of a match, oldest first
func (q *Queries) ListMessages(ctx context.Context, matchID string, limit int) ([]Message, error) {
	query := `
		SELECT id, match_id, sender_id, content, created_at
		FROM messages
		WHERE match_id = $1
		ORDER BY created_at, id
		LIMIT $2`

	rows, err := q.db.QueryContext(ctx, query, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
