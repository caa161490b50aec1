package database

import (
	"context"
	"fmt"
	"time"
)

const missionColumns = `id, user_id, mission_type, xp_reward, completed, assigned_on, created_at, completed_at`

func scanMission(row rowScanner) (*Mission, error) {
	m := &Mission{}
	err := row.Scan(&m.ID, &m.UserID, &m.MissionType, &m.XPReward, &m.Completed,
		&m.AssignedOn, &m.CreatedAt, &m.CompletedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMissionsSince returns missions of userID created at or after since
func (q *Queries) ListMissionsSince(ctx context.Context, userID string, since time.Time) ([]Mission, error) {
	query := `
		SELECT ` + missionColumns + `
		FROM missions
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at, id`

	rows, err := q.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	var out []Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// InsertMissions writes a day's missions. Rows already assigned for the same
// user, type and day are skipped, so concurrent first requests converge.
func (q *Queries) InsertMissions(ctx context.Context, ms []Mission) error {
	query := `
		INSERT INTO missions (id, user_id, mission_type, xp_reward, completed, assigned_on, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		ON CONFLICT (user_id, mission_type, assigned_on) DO NOTHING`

	for _, m := range ms {
		if _, err := q.db.ExecContext(ctx, query,
			m.ID, m.UserID, m.MissionType, m.XPReward, m.AssignedOn, m.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert mission %s: %w", m.MissionType, err)
		}
	}
	return nil
}

// GetMission returns the mission only when it belongs to userID
func (q *Queries) GetMission(ctx context.Context, userID, missionID string) (*Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id = $1 AND user_id = $2`

	m, err := scanMission(q.db.QueryRowContext(ctx, query, missionID, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// CompleteMission marks an incomplete mission completed. It reports false
// when the mission was already completed.
func (q *Queries) CompleteMission(ctx context.Context, userID, missionID string, at time.Time) (bool, error) {
	query := `
		UPDATE missions
		SET completed = TRUE, completed_at = $3
		WHERE id = $1 AND user_id = $2 AND completed = FALSE`

	res, err := q.db.ExecContext(ctx, query, missionID, userID, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete mission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (q *Queries) CompletedMissionTotals(ctx context.Context, userID string) (MissionTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(xp_reward), 0)
		FROM missions
		WHERE user_id = $1 AND completed = TRUE`

	var t MissionTotals
	if err := q.db.QueryRowContext(ctx, query, userID).Scan(&t.Completed, &t.XP); err != nil {
		return MissionTotals{}, fmt.Errorf("failed to sum completed missions: %w", err)
	}
	return t, nil
}
