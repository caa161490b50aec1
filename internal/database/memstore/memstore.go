// Package memstore is an in-memory database.Store for local runs and tests.
// A transaction works on a copy of the data and swaps it in on success, so
// a failed unit of work leaves nothing behind.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/geo"
)

type data struct {
	users    map[string]database.User
	blocks   map[string]database.Block
	matches  map[string]database.Match
	missions map[string]database.Mission
	messages []database.Message
	reports  []database.Report
}

func newData() *data {
	return &data{
		users:    map[string]database.User{},
		blocks:   map[string]database.Block{},
		matches:  map[string]database.Match{},
		missions: map[string]database.Mission{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.blocks {
		c.blocks[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.missions {
		c.missions[k] = v
	}
	c.messages = append([]database.Message(nil), d.messages...)
	c.reports = append([]database.Report(nil), d.reports...)
	return c
}

// Store is safe for concurrent use; transactions are serialized
type Store struct {
	mu   sync.Mutex
	data *data
}

func New() *Store {
	return &Store{data: newData()}
}

var _ database.Store = (*Store)(nil)

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo database.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := &repo{d: s.data.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}
	s.data = work.d
	return nil
}

// with runs a single repository call under the store lock
func (s *Store) with(fn func(r *repo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&repo{d: s.data})
}

// repo implements database.Repository against one data snapshot
type repo struct {
	d *data
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func blockKey(blocker, blocked string) string {
	return blocker + ">" + blocked
}

func (r *repo) CreateUser(_ context.Context, u *database.User) error {
	if _, ok := r.d.users[u.ID]; ok {
		return database.ErrDuplicate
	}
	for _, other := range r.d.users {
		if strings.EqualFold(other.Email, u.Email) || other.AnonymousHandle == u.AnonymousHandle {
			return database.ErrDuplicate
		}
	}
	if u.Level < 1 {
		u.Level = 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	r.d.users[u.ID] = *u
	return nil
}

func (r *repo) GetUser(_ context.Context, id string) (*database.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (r *repo) GetUserForUpdate(ctx context.Context, id string) (*database.User, error) {
	return r.GetUser(ctx, id)
}

func (r *repo) UpdateUserLocation(_ context.Context, id string, c geo.Coordinate, at time.Time) error {
	u, ok := r.d.users[id]
	if !ok {
		return database.ErrNotFound
	}
	lat, lon, ts := c.Latitude, c.Longitude, at
	u.Latitude, u.Longitude, u.LastLocationUpdate, u.UpdatedAt = &lat, &lon, &ts, at
	r.d.users[id] = u
	return nil
}

func (r *repo) UpdateUserProfile(_ context.Context, id string, p database.ProfileUpdate, at time.Time) (*database.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Interests != nil {
		u.Interests = append(database.StringList(nil), p.Interests...)
	}
	if p.MoodStatus != nil {
		u.MoodStatus = p.MoodStatus
	}
	if p.ProfilePhotoURL != nil {
		u.ProfilePhotoURL = p.ProfilePhotoURL
	}
	u.UpdatedAt = at
	r.d.users[id] = u
	return &u, nil
}

func (r *repo) SetUserProgress(_ context.Context, id string, xp, level int) error {
	u, ok := r.d.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.XP, u.Level = xp, level
	r.d.users[id] = u
	return nil
}

func (r *repo) ListActiveLocatedUsers(_ context.Context, since time.Time, exclude []string) ([]database.User, error) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var out []database.User
	for _, u := range r.d.users {
		if skip[u.ID] || u.Latitude == nil || u.Longitude == nil || u.LastLocationUpdate == nil {
			continue
		}
		if u.LastLocationUpdate.Before(since) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *repo) CreateBlock(_ context.Context, b *database.Block) error {
	key := blockKey(b.BlockerID, b.BlockedID)
	if _, ok := r.d.blocks[key]; ok {
		return database.ErrDuplicate
	}
	r.d.blocks[key] = *b
	return nil
}

func (r *repo) DeleteBlock(_ context.Context, blockerID, blockedID string) (bool, error) {
	key := blockKey(blockerID, blockedID)
	if _, ok := r.d.blocks[key]; !ok {
		return false, nil
	}
	delete(r.d.blocks, key)
	return true, nil
}

func (r *repo) ListBlockedUsers(_ context.Context, blockerID string) ([]database.BlockedUser, error) {
	var out []database.BlockedUser
	for _, b := range r.d.blocks {
		if b.BlockerID != blockerID {
			continue
		}
		u, ok := r.d.users[b.BlockedID]
		if !ok {
			continue
		}
		out = append(out, database.BlockedUser{
			UserID:          u.ID,
			AnonymousHandle: u.AnonymousHandle,
			Reason:          b.Reason,
			BlockedAt:       b.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedAt.After(out[j].BlockedAt) })
	return out, nil
}

func (r *repo) BlockedUserIDs(_ context.Context, userID string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, b := range r.d.blocks {
		var other string
		switch userID {
		case b.BlockerID:
			other = b.BlockedID
		case b.BlockedID:
			other = b.BlockerID
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *repo) IsBlockedEitherWay(_ context.Context, a, b string) (bool, error) {
	_, ab := r.d.blocks[blockKey(a, b)]
	_, ba := r.d.blocks[blockKey(b, a)]
	return ab || ba, nil
}

func (r *repo) GetMatch(_ context.Context, id string) (*database.Match, error) {
	m, ok := r.d.matches[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &m, nil
}

func (r *repo) GetMatchBetween(_ context.Context, a, b string) (*database.Match, error) {
	key := pairKey(a, b)
	for _, m := range r.d.matches {
		if pairKey(m.UserAID, m.UserBID) == key {
			m := m
			return &m, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *repo) InsertMatchIfAbsent(ctx context.Context, m *database.Match) (bool, error) {
	if _, err := r.GetMatchBetween(ctx, m.UserAID, m.UserBID); err == nil {
		return false, nil
	}
	r.d.matches[m.ID] = *m
	return true, nil
}

func (r *repo) ListMatchesForUser(_ context.Context, userID, status string) ([]database.Match, error) {
	var out []database.Match
	for _, m := range r.d.matches {
		if !m.Involves(userID) || (status != "" && m.Status != status) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *repo) MatchedUserIDs(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, m := range r.d.matches {
		if m.Involves(userID) {
			out = append(out, m.Other(userID))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *repo) SetRevealed(_ context.Context, matchID string, side database.RevealSide) (bool, error) {
	m, ok := r.d.matches[matchID]
	if !ok {
		return false, nil
	}
	changed := false
	switch side {
	case database.RevealSideA:
		changed, m.IsRevealedA = !m.IsRevealedA, true
	case database.RevealSideB:
		changed, m.IsRevealedB = !m.IsRevealedB, true
	}
	r.d.matches[matchID] = m
	return changed, nil
}

func (r *repo) ListMissionsSince(_ context.Context, userID string, since time.Time) ([]database.Mission, error) {
	var out []database.Mission
	for _, m := range r.d.missions {
		if m.UserID == userID && !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *repo) InsertMissions(_ context.Context, ms []database.Mission) error {
	for _, m := range ms {
		dup := false
		for _, existing := range r.d.missions {
			if existing.UserID == m.UserID && existing.MissionType == m.MissionType &&
				existing.AssignedOn.Equal(m.AssignedOn) {
				dup = true
				break
			}
		}
		if !dup {
			r.d.missions[m.ID] = m
		}
	}
	return nil
}

func (r *repo) GetMission(_ context.Context, userID, missionID string) (*database.Mission, error) {
	m, ok := r.d.missions[missionID]
	if !ok || m.UserID != userID {
		return nil, database.ErrNotFound
	}
	return &m, nil
}

func (r *repo) CompleteMission(_ context.Context, userID, missionID string, at time.Time) (bool, error) {
	m, ok := r.d.missions[missionID]
	if !ok || m.UserID != userID || m.Completed {
		return false, nil
	}
	ts := at
	m.Completed, m.CompletedAt = true, &ts
	r.d.missions[missionID] = m
	return true, nil
}

func (r *repo) CompletedMissionTotals(_ context.Context, userID string) (database.MissionTotals, error) {
	var t database.MissionTotals
	for _, m := range r.d.missions {
		if m.UserID == userID && m.Completed {
			t.Completed++
			t.XP += m.XPReward
		}
	}
	return t, nil
}

func (r *repo) InsertMessage(_ context.Context, m *database.Message) error {
	r.d.messages = append(r.d.messages, *m)
	return nil
}

func (r *repo) ListMessages(_ context.Context, matchID string, limit int) ([]database.Message, error) {
	var out []database.Message
	for _, m := range r.d.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *repo) InsertReport(_ context.Context, rep *database.Report) error {
	r.d.reports = append(r.d.reports, *rep)
	return nil
}

func (r *repo) ListReportsByReporter(_ context.Context, reporterID string) ([]database.Report, error) {
	var out []database.Report
	for _, rep := range r.d.reports {
		if rep.ReporterID == reporterID {
			out = append(out, rep)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
