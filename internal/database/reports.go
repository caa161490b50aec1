package database

import (
	"context"
	"fmt"
)

func (q *Queries) InsertReport(ctx context.Context, r *Report) error {
	query := `
		INSERT INTO reports (id, reporter_id, reported_user_id, report_type, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q.db.ExecContext(ctx, query,
		r.ID, r.ReporterID, r.ReportedUserID, r.ReportType, r.Description, r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (q *Queries) ListReportsByReporter(ctx context.Context, reporterID string) ([]Report, error) {
	query := `
		SELECT id, reporter_id, reported_user_id, report_type, description, status, created_at
		FROM reports
		WHERE reporter_id = $1
		ORDER BY created_at DESC`

	rows, err := q.db.QueryContext(ctx, query, reporterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.ReportedUserID, &r.ReportType,
			&r.Description, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
