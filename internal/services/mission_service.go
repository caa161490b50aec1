package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/missions"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// DailyMission is a materialized mission joined with its catalog text
type DailyMission struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	XPReward    int    `json:"xp_reward"`
	Completed   bool   `json:"completed"`
	Day         string `json:"day"`
}

// DailyMissions is today's mission list
type DailyMissions struct {
	Day              string         `json:"day"`
	Missions         []DailyMission `json:"missions"`
	TotalXPAvailable int            `json:"total_xp_available"`
}

// Completion is the outcome of CompleteMission. When AlreadyCompleted is
// set no XP was awarded and only Message is meaningful.
type Completion struct {
	Message          string `json:"message"`
	AlreadyCompleted bool   `json:"already_completed,omitempty"`
	XPEarned         int    `json:"xp_earned"`
	TotalXP          int    `json:"total_xp"`
	Level            int    `json:"level"`
	LeveledUp        bool   `json:"leveled_up"`
	XPToNextLevel    int    `json:"xp_to_next_level"`
}

// MissionStats aggregates a user's mission history
type MissionStats struct {
	TotalMissionsCompleted int    `json:"total_missions_completed"`
	TotalXPEarned          int    `json:"total_xp_earned"`
	CurrentLevel           int    `json:"current_level"`
	CurrentXP              int    `json:"current_xp"`
	TodayCompleted         int    `json:"today_completed"`
	TodayTotal             int    `json:"today_total"`
	CompletionRate         string `json:"completion_rate"`
}

type MissionService struct {
	store   database.Store
	catalog *missions.Catalog
	now     Clock
	metrics Recorder
}

// NewMissionService uses the default catalog when catalog is nil
func NewMissionService(store database.Store, catalog *missions.Catalog, opts ...Option) *MissionService {
	if catalog == nil {
		catalog = missions.DefaultCatalog()
	}
	o := buildOptions(opts)
	return &MissionService{store: store, catalog: catalog, now: o.now, metrics: o.metrics}
}

func displayDay(day string) string {
	if day == "" {
		return day
	}
	return strings.ToUpper(day[:1]) + day[1:]
}

// GetDailyMissions returns today's missions, creating them on the first
// call of the UTC day.
func (s *MissionService) GetDailyMissions(ctx context.Context, userID string) (*DailyMissions, error) {
	now := s.now()
	day := missions.DayName(now)
	since := missions.StartOfDay(now)
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"day":       day,
		"operation": "get_daily_missions",
	})

	var rows []Mission
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		var err error
		rows, err = repo.ListMissionsSince(ctx, userID, since)
		if err != nil {
			return storeError("list missions", "mission", err)
		}
		if len(rows) > 0 {
			return nil
		}

		defs := s.catalog.ForDay(day)
		fresh := make([]Mission, 0, len(defs))
		for _, def := range defs {
			fresh = append(fresh, Mission{
				ID:          uuid.New().String(),
				UserID:      userID,
				MissionType: def.Type,
				XPReward:    def.XP,
				AssignedOn:  since,
				CreatedAt:   now,
			})
		}
		if err := repo.InsertMissions(ctx, fresh); err != nil {
			return storeError("insert missions", "mission", err)
		}
		logger.WithField("count", len(fresh)).Info("Materialized daily missions")

		rows, err = repo.ListMissionsSince(ctx, userID, since)
		if err != nil {
			return storeError("list missions", "mission", err)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("Failed to load daily missions")
		return nil, err
	}

	byType := make(map[string]Mission, len(rows))
	for _, m := range rows {
		byType[m.MissionType] = m
	}

	// catalog order; rows for types no longer in today's catalog are dropped
	out := &DailyMissions{Day: displayDay(day), Missions: make([]DailyMission, 0, len(rows))}
	for _, def := range s.catalog.ForDay(day) {
		m, ok := byType[def.Type]
		if !ok {
			continue
		}
		out.Missions = append(out.Missions, DailyMission{
			ID:          m.ID,
			Type:        m.MissionType,
			Description: def.Description,
			XPReward:    m.XPReward,
			Completed:   m.Completed,
			Day:         out.Day,
		})
		if !m.Completed {
			out.TotalXPAvailable += m.XPReward
		}
	}
	return out, nil
}

// CompleteMission marks a mission done and awards its XP in one
// transaction. Completing it again is acknowledged without awarding XP.
func (s *MissionService) CompleteMission(ctx context.Context, userID, missionID string) (*Completion, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":    userID,
		"mission_id": missionID,
		"operation":  "complete_mission",
	})

	if err := checkID(missionID, "mission"); err != nil {
		return nil, err
	}

	var result *Completion
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		mission, err := repo.GetMission(ctx, userID, missionID)
		if err != nil {
			return storeError("get mission", "mission", err)
		}

		done, err := repo.CompleteMission(ctx, userID, missionID, s.now())
		if err != nil {
			return storeError("complete mission", "mission", err)
		}
		if !done {
			result = &Completion{Message: "Mission already completed", AlreadyCompleted: true}
			return nil
		}

		user, err := repo.GetUserForUpdate(ctx, userID)
		if err != nil {
			return storeError("get user", "user", err)
		}
		progress, leveledUp := missions.Award(user.Progress(), mission.XPReward)
		if err := repo.SetUserProgress(ctx, userID, progress.XP, progress.Level); err != nil {
			return storeError("update progress", "user", err)
		}

		result = &Completion{
			Message:       "Mission completed!",
			XPEarned:      mission.XPReward,
			TotalXP:       progress.XP,
			Level:         progress.Level,
			LeveledUp:     leveledUp,
			XPToNextLevel: missions.XPToNextLevel(progress),
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to complete mission")
		return nil, err
	}

	if result.AlreadyCompleted {
		logger.Debug("Mission was already completed")
		return result, nil
	}

	s.metrics.MissionCompleted(ctx, result.XPEarned, result.LeveledUp)
	logger.WithFields(map[string]interface{}{
		"xp_earned":  result.XPEarned,
		"level":      result.Level,
		"leveled_up": result.LeveledUp,
	}).Info("Mission completed")
	return result, nil
}

// GetMissionStats is a read-only summary of lifetime and today's progress
func (s *MissionService) GetMissionStats(ctx context.Context, userID string) (*MissionStats, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"operation": "get_mission_stats",
	})

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("get user", "user", err)
	}
	totals, err := s.store.CompletedMissionTotals(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("Failed to aggregate missions")
		return nil, storeError("aggregate missions", "mission", err)
	}
	today, err := s.store.ListMissionsSince(ctx, userID, missions.StartOfDay(s.now()))
	if err != nil {
		logger.WithError(err).Error("Failed to list today's missions")
		return nil, storeError("list missions", "mission", err)
	}

	stats := &MissionStats{
		TotalMissionsCompleted: totals.Completed,
		TotalXPEarned:          totals.XP,
		CurrentLevel:           user.Level,
		CurrentXP:              user.XP,
		TodayTotal:             len(today),
	}
	for _, m := range today {
		if m.Completed {
			stats.TodayCompleted++
		}
	}
	stats.CompletionRate = completionRate(stats.TodayCompleted, stats.TodayTotal)
	return stats, nil
}

func completionRate(done, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(done)/float64(total)*100)
}

// GetWeeklyPreview projects the catalog; it never touches the store
func (s *MissionService) GetWeeklyPreview() missions.WeeklyPreview {
	return s.catalog.WeeklyPreview()
}

// Catalog exposes the catalog the service materializes from
func (s *MissionService) Catalog() *missions.Catalog {
	return s.catalog
}
