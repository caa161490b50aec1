package missions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Rotation(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}, c.Days())
	for _, day := range c.Days() {
		assert.Len(t, c.ForDay(day), 3, day)
	}

	wed := c.ForDay("wednesday")
	assert.Equal(t, []Definition{
		{Type: "update_profile", Description: "Update your bio or interests", XP: 15},
		{Type: "upload_photo", Description: "Upload or update profile photo", XP: 20},
		{Type: "set_mood", Description: "Set your mood status", XP: 10},
	}, wed)
}

func TestCatalog_ForDayFallsBackToMonday(t *testing.T) {
	c := NewCatalog(map[string][]Definition{
		"monday": {{Type: "add_match", Description: "Add a new match", XP: 15}},
	})

	assert.Equal(t, "monday", c.Resolve("friday"))
	assert.Equal(t, c.ForDay("monday"), c.ForDay("friday"))
	assert.Equal(t, c.ForDay("monday"), c.ForDay("Monday"))

	def, ok := c.Lookup("sunday", "add_match")
	assert.True(t, ok)
	assert.Equal(t, 15, def.XP)

	_, ok = c.Lookup("monday", "set_mood")
	assert.False(t, ok)
}

func TestCatalog_IsImmutable(t *testing.T) {
	src := map[string][]Definition{
		"monday": {{Type: "add_match", Description: "Add a new match", XP: 15}},
	}
	c := NewCatalog(src)

	src["monday"][0].XP = 999
	src["tuesday"] = []Definition{{Type: "x", XP: 1}}
	assert.Equal(t, 15, c.ForDay("monday")[0].XP)
	assert.Equal(t, []string{"monday"}, c.Days())

	got := c.ForDay("monday")
	got[0].XP = 1
	assert.Equal(t, 15, c.ForDay("monday")[0].XP)
}

func TestDayName(t *testing.T) {
	// 2024-01-03 was a Wednesday
	wed := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "wednesday", DayName(wed))

	// 23:30 in UTC-5 is already Thursday in UTC
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "thursday", DayName(time.Date(2024, 1, 3, 23, 30, 0, 0, est)))
}

func TestStartOfDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	got := StartOfDay(time.Date(2024, 1, 3, 22, 0, 0, 0, est))
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestWeeklyPreview_Totals(t *testing.T) {
	preview := DefaultCatalog().WeeklyPreview()

	require.Len(t, preview.Days, 7)
	expected := map[string]int{
		"monday": 40, "tuesday": 35, "wednesday": 45, "thursday": 60,
		"friday": 45, "saturday": 60, "sunday": 45,
	}
	sum := 0
	for _, d := range preview.Days {
		assert.Equal(t, expected[d.Day], d.TotalXP, d.Day)
		itemSum := 0
		for _, m := range d.Missions {
			itemSum += m.XP
		}
		assert.Equal(t, itemSum, d.TotalXP)
		sum += d.TotalXP
	}
	assert.Equal(t, sum, preview.TotalWeeklyXP)
	assert.Equal(t, 330, preview.TotalWeeklyXP)
	assert.Len(t, preview.Specials, 3)
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{0, 1}, {1, 1}, {99, 1}, {100, 2}, {105, 2}, {199, 2}, {200, 3}, {1000, 11}, {-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestAward(t *testing.T) {
	tests := []struct {
		name      string
		start     Progress
		xp        int
		want      Progress
		leveledUp bool
		toNext    int
	}{
		{"crosses level boundary", Progress{XP: 95, Level: 1}, 10, Progress{XP: 105, Level: 2}, true, 95},
		{"stays in level", Progress{XP: 10, Level: 1}, 15, Progress{XP: 25, Level: 1}, false, 75},
		{"lands exactly on boundary", Progress{XP: 90, Level: 1}, 10, Progress{XP: 100, Level: 2}, true, 100},
		{"multiple levels", Progress{XP: 0, Level: 1}, 250, Progress{XP: 250, Level: 3}, true, 50},
		{"zero reward", Progress{XP: 40, Level: 1}, 0, Progress{XP: 40, Level: 1}, false, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, leveled := Award(tt.start, tt.xp)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.leveledUp, leveled)
			assert.Equal(t, tt.toNext, XPToNextLevel(got))
		})
	}
}

func TestAward_LevelInvariantOverSequence(t *testing.T) {
	p := Progress{Level: 1}
	rewards := []int{15, 15, 10, 10, 10, 15, 15, 20, 10, 25, 15, 20, 15, 10, 20, 20, 25, 15, 10, 20, 15}
	for _, r := range rewards {
		prev := p
		p, _ = Award(p, r)
		assert.Equal(t, p.XP/XPPerLevel+1, p.Level)
		assert.GreaterOrEqual(t, p.XP, prev.XP)
		assert.GreaterOrEqual(t, p.Level, prev.Level)
		assert.Greater(t, XPToNextLevel(p), 0)
	}
}
