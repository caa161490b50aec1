package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/odoyewu/odoyewu/internal/geo"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("record already exists")
)

// Repository is the query surface the services work against
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserForUpdate(ctx context.Context, id string) (*User, error)
	UpdateUserLocation(ctx context.Context, id string, c geo.Coordinate, at time.Time) error
	UpdateUserProfile(ctx context.Context, id string, p ProfileUpdate, at time.Time) (*User, error)
	SetUserProgress(ctx context.Context, id string, xp, level int) error
	ListActiveLocatedUsers(ctx context.Context, since time.Time, exclude []string) ([]User, error)

	CreateBlock(ctx context.Context, b *Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) (bool, error)
	ListBlockedUsers(ctx context.Context, blockerID string) ([]BlockedUser, error)
	BlockedUserIDs(ctx context.Context, userID string) ([]string, error)
	IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error)

	GetMatch(ctx context.Context, id string) (*Match, error)
	GetMatchBetween(ctx context.Context, a, b string) (*Match, error)
	InsertMatchIfAbsent(ctx context.Context, m *Match) (bool, error)
	ListMatchesForUser(ctx context.Context, userID, status string) ([]Match, error)
	MatchedUserIDs(ctx context.Context, userID string) ([]string, error)
	SetRevealed(ctx context.Context, matchID string, side RevealSide) (bool, error)

	ListMissionsSince(ctx context.Context, userID string, since time.Time) ([]Mission, error)
	InsertMissions(ctx context.Context, ms []Mission) error
	GetMission(ctx context.Context, userID, missionID string) (*Mission, error)
	CompleteMission(ctx context.Context, userID, missionID string, at time.Time) (bool, error)
	CompletedMissionTotals(ctx context.Context, userID string) (MissionTotals, error)

	InsertMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, matchID string, limit int) ([]Message, error)

	InsertReport(ctx context.Context, r *Report) error
	ListReportsByReporter(ctx context.Context, reporterID string) ([]Report, error)
}

// Store is a Repository that can also run a unit of work in one transaction
type Store interface {
	Repository
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Queries implements Repository over any DBTX
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// PostgresStore binds Queries to a pool and adds transactions
type PostgresStore struct {
	*Queries
	db *DB
}

func NewPostgresStore(db *DB) *PostgresStore {
	return &PostgresStore{Queries: NewQueries(db.DB), db: db}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, NewQueries(tx))
	})
}

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
