package database

import (
	"context"
	"fmt"
)

func (q *Queries) CreateBlock(ctx context.Context, b *Block) error {
	query := `
		INSERT INTO blocks (id, blocker_id, blocked_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := q.db.ExecContext(ctx, query, b.ID, b.BlockerID, b.BlockedID, b.Reason, b.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

// DeleteBlock removes the directed edge and reports whether it existed
func (q *Queries) DeleteBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	query := `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`

	res, err := q.db.ExecContext(ctx, query, blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("failed to delete block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) ListBlockedUsers(ctx context.Context, blockerID string) ([]BlockedUser, error) {
	query := `
		SELECT u.id, u.anonymous_handle, b.reason, b.created_at
		FROM blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = $1
		ORDER BY b.created_at DESC`

	rows, err := q.db.QueryContext(ctx, query, blockerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	defer rows.Close()

	var out []BlockedUser
	for rows.Next() {
		var bu BlockedUser
		if err := rows.Scan(&bu.UserID, &bu.AnonymousHandle, &bu.Reason, &bu.BlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked user: %w", err)
		}
		out = append(out, bu)
	}
	return out, rows.Err()
}

// BlockedUserIDs returns every user blocked by or blocking userID
func (q *Queries) BlockedUserIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT blocked_id FROM blocks WHERE blocker_id = $1
		UNION
		SELECT blocker_id FROM blocks WHERE blocked_id = $1`

	return q.selectIDs(ctx, query, userID)
}

func (q *Queries) IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
				OR (blocker_id = $2 AND blocked_id = $1)
		)`

	var blocked bool
	if err := q.db.QueryRowContext(ctx, query, a, b).Scan(&blocked); err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return blocked, nil
}

func (q *Queries) selectIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
