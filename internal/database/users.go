package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/odoyewu/odoyewu/internal/geo"
)

const userColumns = `id, email, anonymous_handle, real_name, bio, interests, mood_status,
	profile_photo_url, verified, latitude, longitude, last_location_update,
	xp, level, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.AnonymousHandle, &u.RealName, &u.Bio, &u.Interests, &u.MoodStatus,
		&u.ProfilePhotoURL, &u.Verified, &u.Latitude, &u.Longitude, &u.LastLocationUpdate,
		&u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (q *Queries) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, email, anonymous_handle, real_name, bio, interests, mood_status,
			profile_photo_url, verified, latitude, longitude, last_location_update, xp, level,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`

	if u.Level < 1 {
		u.Level = 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	_, err := q.db.ExecContext(ctx, query,
		u.ID, u.Email, u.AnonymousHandle, u.RealName, u.Bio, u.Interests, u.MoodStatus,
		u.ProfilePhotoURL, u.Verified, u.Latitude, u.Longitude, u.LastLocationUpdate,
		u.XP, u.Level, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetUserForUpdate locks the user row until the surrounding transaction ends
func (q *Queries) GetUserForUpdate(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	u, err := scanUser(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (q *Queries) UpdateUserLocation(ctx context.Context, id string, c geo.Coordinate, at time.Time) error {
	query := `
		UPDATE users
		SET latitude = $2, longitude = $3, last_location_update = $4, updated_at = $4
		WHERE id = $1`

	res, err := q.db.ExecContext(ctx, query, id, c.Latitude, c.Longitude, at)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return expectOne(res)
}

func (q *Queries) UpdateUserProfile(ctx context.Context, id string, p ProfileUpdate, at time.Time) (*User, error) {
	query := `
		UPDATE users
		SET bio = COALESCE($2, bio),
			interests = COALESCE($3, interests),
			mood_status = COALESCE($4, mood_status),
			profile_photo_url = COALESCE($5, profile_photo_url),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns

	var interests interface{}
	if p.Interests != nil {
		interests = p.Interests
	}

	u, err := scanUser(q.db.QueryRowContext(ctx, query, id, p.Bio, interests, p.MoodStatus, p.ProfilePhotoURL, at))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (q *Queries) SetUserProgress(ctx context.Context, id string, xp, level int) error {
	query := `UPDATE users SET xp = $2, level = $3, updated_at = NOW() WHERE id = $1`

	res, err := q.db.ExecContext(ctx, query, id, xp, level)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return expectOne(res)
}

// ListActiveLocatedUsers returns users with a location written at or after since
func (q *Queries) ListActiveLocatedUsers(ctx context.Context, since time.Time, exclude []string) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE latitude IS NOT NULL
			AND longitude IS NOT NULL
			AND last_location_update >= $1
			AND NOT (id = ANY($2::uuid[]))`

	if exclude == nil {
		exclude = []string{}
	}

	rows, err := q.db.QueryContext(ctx, query, since, pq.Array(exclude))
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
