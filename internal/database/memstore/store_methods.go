package memstore

import (
	"context"
	"time"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/geo"
)

// Repository methods outside a transaction run under the store lock.
func (s *Store) CreateUser(ctx context.Context, u *database.User) error {
	return s.with(func(r *repo) error { return r.CreateUser(ctx, u) })
}

func (s *Store) GetUser(ctx context.Context, id string) (*database.User, error) {
	var out *database.User
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.GetUser(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) GetUserForUpdate(ctx context.Context, id string) (*database.User, error) {
	var out *database.User
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.GetUserForUpdate(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) UpdateUserLocation(ctx context.Context, id string, c geo.Coordinate, at time.Time) error {
	return s.with(func(r *repo) error { return r.UpdateUserLocation(ctx, id, c, at) })
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, p database.ProfileUpdate, at time.Time) (*database.User, error) {
	var out *database.User
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.UpdateUserProfile(ctx, id, p, at)
		return err
	})
	return out, err
}

func (s *Store) SetUserProgress(ctx context.Context, id string, xp, level int) error {
	return s.with(func(r *repo) error { return r.SetUserProgress(ctx, id, xp, level) })
}

func (s *Store) ListActiveLocatedUsers(ctx context.Context, since time.Time, exclude []string) ([]database.User, error) {
	var out []database.User
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.ListActiveLocatedUsers(ctx, since, exclude)
		return err
	})
	return out, err
}

func (s *Store) CreateBlock(ctx context.Context, b *database.Block) error {
	return s.with(func(r *repo) error { return r.CreateBlock(ctx, b) })
}

func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var out bool
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.DeleteBlock(ctx, blockerID, blockedID)
		return err
	})
	return out, err
}

func (s *Store) ListBlockedUsers(ctx context.Context, blockerID string) ([]database.BlockedUser, error) {
	var out []database.BlockedUser
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.ListBlockedUsers(ctx, blockerID)
		return err
	})
	return out, err
}

func (s *Store) BlockedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.BlockedUserIDs(ctx, userID)
		return err
	})
	return out, err
}

func (s *Store) IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	var out bool
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.IsBlockedEitherWay(ctx, a, b)
		return err
	})
	return out, err
}

func (s *Store) GetMatch(ctx context.Context, id string) (*database.Match, error) {
	var out *database.Match
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.GetMatch(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) GetMatchBetween(ctx context.Context, a, b string) (*database.Match, error) {
	var out *database.Match
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.GetMatchBetween(ctx, a, b)
		return err
	})
	return out, err
}

func (s *Store) InsertMatchIfAbsent(ctx context.Context, m *database.Match) (bool, error) {
	var out bool
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.InsertMatchIfAbsent(ctx, m)
		return err
	})
	return out, err
}

func (s *Store) ListMatchesForUser(ctx context.Context, userID, status string) ([]database.Match, error) {
	var out []database.Match
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.ListMatchesForUser(ctx, userID, status)
		return err
	})
	return out, err
}

func (s *Store) MatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.MatchedUserIDs(ctx, userID)
		return err
	})
	return out, err
}

func (s *Store) SetRevealed(ctx context.Context, matchID string, side database.RevealSide) (bool, error) {
	var out bool
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.SetRevealed(ctx, matchID, side)
		return err
	})
	return out, err
}

func (s *Store) ListMissionsSince(ctx context.Context, userID string, since time.Time) ([]database.Mission, error) {
	var out []database.Mission
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.ListMissionsSince(ctx, userID, since)
		return err
	})
	return out, err
}

func (s *Store) InsertMissions(ctx context.Context, ms []database.Mission) error {
	return s.with(func(r *repo) error { return r.InsertMissions(ctx, ms) })
}

func (s *Store) GetMission(ctx context.Context, userID, missionID string) (*database.Mission, error) {
	var out *database.Mission
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.GetMission(ctx, userID, missionID)
		return err
	})
	return out, err
}

func (s *Store) CompleteMission(ctx context.Context, userID, missionID string, at time.Time) (bool, error) {
	var out bool
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.CompleteMission(ctx, userID, missionID, at)
		return err
	})
	return out, err
}

func (s *Store) CompletedMissionTotals(ctx context.Context, userID string) (database.MissionTotals, error) {
	var out database.MissionTotals
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.CompletedMissionTotals(ctx, userID)
		return err
	})
	return out, err
}

func (s *Store) InsertMessage(ctx context.Context, m *database.Message) error {
	return s.with(func(r *repo) error { return r.InsertMessage(ctx, m) })
}

func (s *Store) ListMessages(ctx context.Context, matchID string, limit int) ([]database.Message, error) {
	var out []database.Message
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.ListMessages(ctx, matchID, limit)
		return err
	})
	return out, err
}

func (s *Store) InsertReport(ctx context.Context, rep *database.Report) error {
	return s.with(func(r *repo) error { return r.InsertReport(ctx, rep) })
}

func (s *Store) ListReportsByReporter(ctx context.Context, reporterID string) ([]database.Report, error) {
	var out []database.Report
	err := s.with(func(r *repo) error {
		var err error
		out, err = r.ListReportsByReporter(ctx, reporterID)
		return err
	})
	return out, err
}
