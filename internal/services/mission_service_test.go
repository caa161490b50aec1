package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odoyewu/odoyewu/internal/database"
	apperrors "github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/missions"
)

func newMissionFixture(t *testing.T, catalog *missions.Catalog) (*MissionService, database.Store, *testClock) {
	t.Helper()
	store := newMemStore()
	clock := newTestClock(wednesday)
	return NewMissionService(store, catalog, WithClock(clock.Now)), store, clock
}

func missionIDs(d *DailyMissions) []string {
	ids := make([]string, 0, len(d.Missions))
	for _, m := range d.Missions {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestGetDailyMissions_Wednesday(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	u := seedUser(t, store, "u", nil, wednesday)

	daily, err := svc.GetDailyMissions(context.Background(), u.ID)
	require.NoError(t, err)

	expected := missions.DefaultCatalog().ForDay("wednesday")
	require.Len(t, daily.Missions, len(expected))
	assert.Equal(t, "Wednesday", daily.Day)

	sum := 0
	byType := map[string]DailyMission{}
	for _, m := range daily.Missions {
		byType[m.Type] = m
	}
	for _, def := range expected {
		m, ok := byType[def.Type]
		require.True(t, ok, def.Type)
		assert.Equal(t, def.XP, m.XPReward)
		assert.Equal(t, def.Description, m.Description)
		assert.False(t, m.Completed)
		assert.Equal(t, "Wednesday", m.Day)
		sum += def.XP
	}
	assert.Equal(t, sum, daily.TotalXPAvailable)
}

func TestGetDailyMissions_CatalogOrder(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		u := seedUser(t, store, fmt.Sprintf("order-%d", i), nil, wednesday)
		for round := 0; round < 2; round++ {
			daily, err := svc.GetDailyMissions(ctx, u.ID)
			require.NoError(t, err)

			types := make([]string, 0, len(daily.Missions))
			for _, m := range daily.Missions {
				types = append(types, m.Type)
			}
			assert.Equal(t, []string{"update_profile", "upload_photo", "set_mood"}, types)
		}
	}
}

func TestGetDailyMissions_IdempotentWithinDay(t *testing.T) {
	svc, store, clock := newMissionFixture(t, nil)
	ctx := context.Background()
	u := seedUser(t, store, "u", nil, wednesday)

	first, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)

	clock.Advance(9 * time.Hour) // 23:30 the same day
	second, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, missionIDs(first), missionIDs(second))

	rows, err := store.ListMissionsSince(ctx, u.ID, missions.StartOfDay(wednesday))
	require.NoError(t, err)
	assert.Len(t, rows, len(first.Missions))

	clock.Advance(time.Hour) // thursday 00:30
	thursday, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thursday", thursday.Day)
	for _, id := range missionIDs(thursday) {
		assert.NotContains(t, missionIDs(first), id)
	}
}

func TestGetDailyMissions_ConcurrentFirstCall(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	u := seedUser(t, store, "u", nil, wednesday)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetDailyMissions(context.Background(), u.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows, err := store.ListMissionsSince(context.Background(), u.ID, missions.StartOfDay(wednesday))
	require.NoError(t, err)
	assert.Len(t, rows, len(missions.DefaultCatalog().ForDay("wednesday")))
}

func TestGetDailyMissions_DropsRetiredTypes(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	ctx := context.Background()
	u := seedUser(t, store, "u", nil, wednesday)

	require.NoError(t, store.InsertMissions(ctx, []database.Mission{{
		ID:          uuid.New().String(),
		UserID:      u.ID,
		MissionType: "retired_mission",
		XPReward:    99,
		AssignedOn:  missions.StartOfDay(wednesday),
		CreatedAt:   wednesday.Add(-time.Hour),
	}}))

	daily, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, daily.Missions)
	assert.Zero(t, daily.TotalXPAvailable)
}

func TestGetDailyMissions_FallsBackToMonday(t *testing.T) {
	catalog := missions.NewCatalog(map[string][]missions.Definition{
		"monday": {{Type: "say_hi", Description: "Say hi", XP: 5}},
	})
	svc, store, _ := newMissionFixture(t, catalog)
	u := seedUser(t, store, "u", nil, wednesday)

	daily, err := svc.GetDailyMissions(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, daily.Missions, 1)
	assert.Equal(t, "say_hi", daily.Missions[0].Type)
	assert.Equal(t, 5, daily.TotalXPAvailable)
}

func TestCompleteMission_LevelUp(t *testing.T) {
	catalog := missions.NewCatalog(map[string][]missions.Definition{
		"wednesday": {{Type: "ten", Description: "Worth ten", XP: 10}},
	})
	store := newMemStore()
	rec := &mockRecorder{}
	rec.On("MissionCompleted", 10, true).Once()
	svc := NewMissionService(store, catalog, WithClock(newTestClock(wednesday).Now), WithRecorder(rec))
	ctx := context.Background()

	u := seedUser(t, store, "u", nil, wednesday)
	require.NoError(t, store.SetUserProgress(ctx, u.ID, 95, 1))

	daily, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, daily.Missions, 1)

	result, err := svc.CompleteMission(ctx, u.ID, daily.Missions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, &Completion{
		Message:       "Mission completed!",
		XPEarned:      10,
		TotalXP:       105,
		Level:         2,
		LeveledUp:     true,
		XPToNextLevel: 95,
	}, result)

	stored, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, stored.XP)
	assert.Equal(t, 2, stored.Level)
	rec.AssertExpectations(t)
}

func TestCompleteMission_Idempotent(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	ctx := context.Background()
	u := seedUser(t, store, "u", nil, wednesday)

	daily, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	id := daily.Missions[0].ID

	first, err := svc.CompleteMission(ctx, u.ID, id)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCompleted)

	second, err := svc.CompleteMission(ctx, u.ID, id)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, "Mission already completed", second.Message)

	stored, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TotalXP, stored.XP)

	after, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, daily.TotalXPAvailable-first.XPEarned, after.TotalXPAvailable)
}

func TestCompleteMission_ConcurrentAwardsOnce(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	ctx := context.Background()
	u := seedUser(t, store, "u", nil, wednesday)

	daily, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	m := daily.Missions[0]

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CompleteMission(ctx, u.ID, m.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, m.XPReward, stored.XP)
}

func TestCompleteMission_LevelInvariantAcrossWeek(t *testing.T) {
	svc, store, clock := newMissionFixture(t, nil)
	ctx := context.Background()
	u := seedUser(t, store, "u", nil, wednesday)

	for day := 0; day < 14; day++ {
		daily, err := svc.GetDailyMissions(ctx, u.ID)
		require.NoError(t, err)
		for _, m := range daily.Missions {
			_, err := svc.CompleteMission(ctx, u.ID, m.ID)
			require.NoError(t, err)

			stored, err := store.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, stored.XP/missions.XPPerLevel+1, stored.Level)
		}
		clock.Advance(24 * time.Hour)
	}

	stored, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 660, stored.XP, "two full weeks of missions")
	assert.Equal(t, 7, stored.Level)
}

func TestCompleteMission_NotFound(t *testing.T) {
	svc, store, _ := newMissionFixture(t, nil)
	ctx := context.Background()
	owner := seedUser(t, store, "owner", nil, wednesday)
	intruder := seedUser(t, store, "intruder", nil, wednesday)

	daily, err := svc.GetDailyMissions(ctx, owner.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		userID    string
		missionID string
	}{
		{"someone else's mission", intruder.ID, daily.Missions[0].ID},
		{"unknown id", owner.ID, uuid.New().String()},
		{"malformed id", owner.ID, "17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompleteMission(ctx, tt.userID, tt.missionID)
			assertAppError(t, err, apperrors.ErrorTypeNotFound)
		})
	}

	stored, err := store.GetUser(ctx, intruder.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.XP)
}

func TestGetMissionStats(t *testing.T) {
	svc, store, clock := newMissionFixture(t, nil)
	ctx := context.Background()
	u := seedUser(t, store, "u", nil, wednesday)

	stats, err := svc.GetMissionStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &MissionStats{CurrentLevel: 1, CompletionRate: "0%"}, stats)

	daily, err := svc.GetDailyMissions(ctx, u.ID)
	require.NoError(t, err)
	done, err := svc.CompleteMission(ctx, u.ID, daily.Missions[0].ID)
	require.NoError(t, err)

	stats, err = svc.GetMissionStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMissionsCompleted)
	assert.Equal(t, done.XPEarned, stats.TotalXPEarned)
	assert.Equal(t, done.TotalXP, stats.CurrentXP)
	assert.Equal(t, 1, stats.TodayCompleted)
	assert.Equal(t, 3, stats.TodayTotal)
	assert.Equal(t, "33%", stats.CompletionRate)

	clock.Advance(24 * time.Hour)
	stats, err = svc.GetMissionStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMissionsCompleted)
	assert.Zero(t, stats.TodayTotal)
	assert.Equal(t, "0%", stats.CompletionRate)
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		done, total int
		expected    string
	}{
		{0, 0, "0%"},
		{0, 3, "0%"},
		{1, 3, "33%"},
		{2, 3, "67%"},
		{3, 3, "100%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, completionRate(tt.done, tt.total))
	}
}

func TestGetWeeklyPreview(t *testing.T) {
	svc := NewMissionService(nil, nil)

	preview := svc.GetWeeklyPreview()
	require.Len(t, preview.Days, 7)
	assert.Equal(t, "monday", preview.Days[0].Day)

	sum := 0
	for _, d := range preview.Days {
		for _, m := range d.Missions {
			sum += m.XP
		}
	}
	assert.Equal(t, sum, preview.TotalWeeklyXP)
	assert.Equal(t, 330, preview.TotalWeeklyXP)
	assert.Len(t, preview.Specials, 3)
}
