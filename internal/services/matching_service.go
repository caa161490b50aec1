package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/config"
	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/geo"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// NearbyUser is a candidate returned by FindNearby
type NearbyUser struct {
	PublicProfile
	Distance float64 `json:"distance"`
}

// MatchResult is returned by CreateMatch. Created is false when the pair
// already had a match.
type MatchResult struct {
	MatchID string `json:"match_id"`
	Created bool   `json:"created"`
}

// MatchSummary is one entry of ListMyMatches
type MatchSummary struct {
	MatchID   string       `json:"match_id"`
	User      MatchProfile `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// MatchProfile is the counterpart shown in a match list
type MatchProfile struct {
	ID              string  `json:"id"`
	AnonymousHandle string  `json:"anonymous_handle"`
	Bio             *string `json:"bio"`
	ProfilePhotoURL *string `json:"profile_photo_url"`
}

type MatchingService struct {
	store   database.Store
	cfg     config.MatchingConfig
	now     Clock
	metrics Recorder
}

func NewMatchingService(store database.Store, cfg config.MatchingConfig, opts ...Option) *MatchingService {
	o := buildOptions(opts)
	return &MatchingService{store: store, cfg: cfg, now: o.now, metrics: o.metrics}
}

// UpdateLocation stores the user's coordinate and stamps it with the current time
func (s *MatchingService) UpdateLocation(ctx context.Context, userID string, lat, lon float64) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"operation": "update_location",
	})

	coord, err := geo.NewCoordinate(lat, lon)
	if err != nil {
		logger.WithError(err).Warn("Rejected location update")
		var rangeErr *geo.RangeError
		if stderrors.As(err, &rangeErr) {
			return errors.NewValidationError(rangeErr.Field, rangeErr.Error())
		}
		return errors.NewValidationError("location", err.Error())
	}

	if err := s.store.UpdateUserLocation(ctx, userID, coord, s.now()); err != nil {
		logger.WithError(err).Error("Failed to update location")
		return storeError("update location", "user", err)
	}

	logger.Debug("Location updated")
	return nil
}

// FindNearby lists active users within radius miles, excluding blocked and
// already matched users, closest first. A radius that is not a positive
// finite number uses the configured default.
func (s *MatchingService) FindNearby(ctx context.Context, userID string, radius float64) ([]NearbyUser, error) {
	if !validRadius(radius) {
		radius = s.cfg.DefaultRadiusMiles
	}
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":      userID,
		"radius_miles": radius,
		"operation":    "find_nearby",
	})

	me, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("get user", "user", err)
	}
	origin, ok := me.Location()
	if !ok {
		logger.Debug("Nearby search without location")
		return nil, errors.NewPreconditionError("User location not set")
	}

	exclude, err := s.excludedIDs(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("Failed to resolve excluded users")
		return nil, storeError("resolve excluded users", "user", err)
	}

	candidates, err := s.store.ListActiveLocatedUsers(ctx, s.now().Add(-s.cfg.ActiveWindow), exclude)
	if err != nil {
		logger.WithError(err).Error("Failed to list active users")
		return nil, storeError("list active users", "user", err)
	}

	nearby := make([]NearbyUser, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		loc, ok := c.Location()
		if !ok {
			continue
		}
		d := geo.Haversine(origin, loc)
		if float64(d) > radius {
			continue
		}
		nearby = append(nearby, NearbyUser{PublicProfile: c.Public(), Distance: d.Rounded()})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].Distance == nearby[j].Distance {
			return nearby[i].ID < nearby[j].ID
		}
		return nearby[i].Distance < nearby[j].Distance
	})

	s.metrics.NearbySearched(ctx, len(nearby))
	logger.WithField("count", len(nearby)).Debug("Nearby search finished")
	return nearby, nil
}

// excludedIDs is the caller plus everyone blocked either way or already matched
func (s *MatchingService) excludedIDs(ctx context.Context, userID string) ([]string, error) {
	blocked, err := s.store.BlockedUserIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	matched, err := s.store.MatchedUserIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matched users: %w", err)
	}

	seen := map[string]bool{userID: true}
	exclude := []string{userID}
	for _, id := range append(blocked, matched...) {
		if !seen[id] {
			seen[id] = true
			exclude = append(exclude, id)
		}
	}
	return exclude, nil
}

// CreateMatch links the caller with otherID. The pair is unordered: a
// second call in either direction returns the existing match.
func (s *MatchingService) CreateMatch(ctx context.Context, userID, otherID string) (*MatchResult, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"target_id": otherID,
		"operation": "create_match",
	})

	if otherID == userID {
		return nil, errors.NewValidationError("user_id", "cannot match with yourself")
	}
	if err := checkID(otherID, "user"); err != nil {
		return nil, err
	}

	var result *MatchResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		blocked, err := repo.IsBlockedEitherWay(ctx, userID, otherID)
		if err != nil {
			return storeError("check block", "block", err)
		}
		if blocked {
			return errors.NewAuthorizationError("Cannot create match with this user")
		}

		if _, err := repo.GetUser(ctx, otherID); err != nil {
			return storeError("get user", "user", err)
		}

		existing, err := repo.GetMatchBetween(ctx, userID, otherID)
		if err == nil {
			result = &MatchResult{MatchID: existing.ID}
			return nil
		}
		if !stderrors.Is(err, database.ErrNotFound) {
			return storeError("find match", "match", err)
		}

		m := &Match{
			ID:        uuid.New().String(),
			UserAID:   userID,
			UserBID:   otherID,
			Status:    database.MatchStatusMatched,
			CreatedAt: s.now(),
		}
		created, err := repo.InsertMatchIfAbsent(ctx, m)
		if err != nil {
			return storeError("insert match", "match", err)
		}
		if created {
			result = &MatchResult{MatchID: m.ID, Created: true}
			return nil
		}

		// a concurrent request won the insert
		winner, err := repo.GetMatchBetween(ctx, userID, otherID)
		if err != nil {
			return storeError("find match", "match", err)
		}
		result = &MatchResult{MatchID: winner.ID}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to create match")
		return nil, err
	}

	if result.Created {
		s.metrics.MatchCreated(ctx)
		logger.WithField("match_id", result.MatchID).Info("Match created")
	} else {
		logger.WithField("match_id", result.MatchID).Debug("Match already exists")
	}
	return result, nil
}

// ListMyMatches returns the caller's matched pairs with the other party's profile
func (s *MatchingService) ListMyMatches(ctx context.Context, userID string) ([]MatchSummary, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"operation": "list_my_matches",
	})

	matches, err := s.store.ListMatchesForUser(ctx, userID, database.MatchStatusMatched)
	if err != nil {
		logger.WithError(err).Error("Failed to list matches")
		return nil, storeError("list matches", "match", err)
	}

	out := make([]MatchSummary, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		other, err := s.store.GetUser(ctx, m.Other(userID))
		if stderrors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeError("get user", "user", err)
		}
		out = append(out, MatchSummary{
			MatchID: m.ID,
			User: MatchProfile{
				ID:              other.ID,
				AnonymousHandle: other.AnonymousHandle,
				Bio:             other.Bio,
				ProfilePhotoURL: other.ProfilePhotoURL,
			},
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
