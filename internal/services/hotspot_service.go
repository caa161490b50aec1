package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/odoyewu/odoyewu/internal/config"
	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/geo"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// Hotspot is a grid cell with enough active users to be shown
type Hotspot struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

// HotspotReport is the result of ComputeHotspots
type HotspotReport struct {
	Hotspots  []Hotspot `json:"hotspots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NearbyActivity counts recently active users around the caller
type NearbyActivity struct {
	ActiveUsersNearby int     `json:"active_users_nearby"`
	RadiusMiles       float64 `json:"radius_miles"`
}

// JSONCache stores JSON encodable values under a key with a TTL. GetCache
// returns an error on a miss.
type JSONCache interface {
	SetCache(ctx context.Context, key string, data interface{}, ttl time.Duration) error
	GetCache(ctx context.Context, key string, dest interface{}) error
}

type HotspotService struct {
	store database.Repository
	cache JSONCache
	cfg   config.MatchingConfig
	grid  geo.Grid
	now   Clock
}

// NewHotspotService builds the aggregation engine; cache may be nil
func NewHotspotService(store database.Repository, cache JSONCache, cfg config.MatchingConfig, opts ...Option) *HotspotService {
	o := buildOptions(opts)
	if cfg.HotspotMinCount < 1 {
		cfg.HotspotMinCount = 3
	}
	return &HotspotService{
		store: store,
		cache: cache,
		cfg:   cfg,
		grid:  geo.NewGrid(cfg.HotspotGridSize),
		now:   o.now,
	}
}

func (s *HotspotService) cacheKey() string {
	return fmt.Sprintf("hotspots:grid:%g", s.grid.Size)
}

// ComputeHotspots groups users active in the hotspot window into grid
// cells and returns only cells with at least HotspotMinCount members.
func (s *HotspotService) ComputeHotspots(ctx context.Context) (*HotspotReport, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"grid_size": s.grid.Size,
		"operation": "compute_hotspots",
	})

	if s.cache != nil {
		var cached HotspotReport
		if err := s.cache.GetCache(ctx, s.cacheKey(), &cached); err == nil {
			logger.Debug("Hotspots served from cache")
			return &cached, nil
		}
	}

	now := s.now()
	users, err := s.store.ListActiveLocatedUsers(ctx, now.Add(-s.cfg.HotspotWindow), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to list active users")
		return nil, storeError("list active users", "user", err)
	}

	report := &HotspotReport{
		Hotspots:  Aggregate(s.grid, locations(users), s.cfg.HotspotMinCount),
		UpdatedAt: now,
	}

	if s.cache != nil && s.cfg.HotspotCacheTTL > 0 {
		if err := s.cache.SetCache(ctx, s.cacheKey(), report, s.cfg.HotspotCacheTTL); err != nil {
			logger.WithError(err).Warn("Failed to cache hotspots")
		}
	}

	logger.WithFields(map[string]interface{}{
		"active_users": len(users),
		"cells":        len(report.Hotspots),
	}).Debug("Hotspots computed")
	return report, nil
}

// Aggregate snaps every coordinate to grid and keeps cells with at least
// minCount members, ordered by count descending then position.
func Aggregate(grid geo.Grid, coords []geo.Coordinate, minCount int) []Hotspot {
	counts := make(map[geo.Cell]int)
	for _, c := range coords {
		counts[grid.Snap(c)]++
	}

	hotspots := make([]Hotspot, 0, len(counts))
	for cell, n := range counts {
		if n < minCount {
			continue
		}
		hotspots = append(hotspots, Hotspot{Latitude: cell.Latitude, Longitude: cell.Longitude, Count: n})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		a, b := hotspots[i], hotspots[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Latitude != b.Latitude {
			return a.Latitude < b.Latitude
		}
		return a.Longitude < b.Longitude
	})
	return hotspots
}

func locations(users []User) []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, len(users))
	for i := range users {
		if c, ok := users[i].Location(); ok {
			coords = append(coords, c)
		}
	}
	return coords
}

// NearbyActivity counts other users active in the hotspot window within
// radius miles of the caller. A radius that is not a positive finite number
// uses the configured default.
func (s *HotspotService) NearbyActivity(ctx context.Context, userID string, radius float64) (*NearbyActivity, error) {
	if !validRadius(radius) {
		radius = s.cfg.ActivityRadiusMiles
	}
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":      userID,
		"radius_miles": radius,
		"operation":    "nearby_activity",
	})

	me, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("get user", "user", err)
	}
	origin, ok := me.Location()
	if !ok {
		return nil, errors.NewPreconditionError("User location not set")
	}

	users, err := s.store.ListActiveLocatedUsers(ctx, s.now().Add(-s.cfg.HotspotWindow), []string{userID})
	if err != nil {
		logger.WithError(err).Error("Failed to list active users")
		return nil, storeError("list active users", "user", err)
	}

	count := 0
	for _, c := range locations(users) {
		if float64(geo.Haversine(origin, c)) <= radius {
			count++
		}
	}
	return &NearbyActivity{ActiveUsersNearby: count, RadiusMiles: radius}, nil
}
