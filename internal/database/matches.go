package database

import (
	"context"
	"fmt"
)

const matchColumns = `id, user_a_id, user_b_id, status, is_revealed_a, is_revealed_b, created_at`

func scanMatch(row rowScanner) (*Match, error) {
	m := &Match{}
	if err := row.Scan(&m.ID, &m.UserAID, &m.UserBID, &m.Status, &m.IsRevealedA, &m.IsRevealedB, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (q *Queries) GetMatch(ctx context.Context, id string) (*Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// GetMatchBetween finds the match for the unordered pair {a, b}
func (q *Queries) GetMatchBetween(ctx context.Context, a, b string) (*Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE LEAST(user_a_id, user_b_id) = LEAST($1::uuid, $2::uuid)
			AND GREATEST(user_a_id, user_b_id) = GREATEST($1::uuid, $2::uuid)`

	m, err := scanMatch(q.db.QueryRowContext(ctx, query, a, b))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// InsertMatchIfAbsent inserts m unless the pair already has a match.
// It reports false when the unordered-pair index rejected the row.
func (q *Queries) InsertMatchIfAbsent(ctx context.Context, m *Match) (bool, error) {
	query := `
		INSERT INTO matches (id, user_a_id, user_b_id, status, is_revealed_a, is_revealed_b, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`

	res, err := q.db.ExecContext(ctx, query,
		m.ID, m.UserAID, m.UserBID, m.Status, m.IsRevealedA, m.IsRevealedB, m.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// ListMatchesForUser returns matches involving userID, newest first. An
// empty status returns every status.
func (q *Queries) ListMatchesForUser(ctx context.Context, userID, status string) ([]Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1)
			AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`

	rows, err := q.db.QueryContext(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// MatchedUserIDs returns the counterpart of every match of userID, any status
func (q *Queries) MatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN user_a_id = $1 THEN user_b_id ELSE user_a_id END
		FROM matches
		WHERE user_a_id = $1 OR user_b_id = $1`

	return q.selectIDs(ctx, query, userID)
}

// SetRevealed flips one reveal flag and reports whether it changed
func (q *Queries) SetRevealed(ctx context.Context, matchID string, side RevealSide) (bool, error) {
	var query string
	switch side {
	case RevealSideA:
		query = `UPDATE matches SET is_revealed_a = TRUE WHERE id = $1 AND is_revealed_a = FALSE`
	case RevealSideB:
		query = `UPDATE matches SET is_revealed_b = TRUE WHERE id = $1 AND is_revealed_b = FALSE`
	default:
		return false, fmt.Errorf("unknown reveal side %q", side)
	}

	res, err := q.db.ExecContext(ctx, query, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to set reveal flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}
