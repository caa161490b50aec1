// Package missions holds the weekly mission rotation and the XP/level rules.
package missions

import (
	"strings"
	"time"
)

// FallbackDay is used when a weekday has no catalog entry
const FallbackDay = "monday"

// Definition is one catalog entry
type Definition struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	XP          int    `json:"xp"`
}

// Special missions are one-time or milestone rewards shown alongside the rotation.
type Special struct {
	Definition
	OneTime   bool `json:"one_time,omitempty"`
	Milestone bool `json:"milestone,omitempty"`
}

// weekOrder is the display order for previews
var weekOrder = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Catalog maps weekday names to their missions. It is never mutated after
// construction and is safe for concurrent use.
type Catalog struct {
	days     map[string][]Definition
	specials []Special
}

// NewCatalog copies days so later changes to the input do not leak in
func NewCatalog(days map[string][]Definition, specials ...Special) *Catalog {
	c := &Catalog{days: make(map[string][]Definition, len(days))}
	for day, defs := range days {
		c.days[strings.ToLower(day)] = append([]Definition(nil), defs...)
	}
	c.specials = append([]Special(nil), specials...)
	return c
}

// DefaultCatalog returns the product's weekly rotation
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string][]Definition{
		"monday": {
			{Type: "start_conversation", Description: "Start 2 conversations", XP: 15},
			{Type: "add_match", Description: "Add a new match", XP: 15},
			{Type: "send_messages", Description: "Send 5 messages", XP: 10},
		},
		"tuesday": {
			{Type: "check_hotspots", Description: "Check the hotspot map", XP: 10},
			{Type: "update_location", Description: "Update your location", XP: 10},
			{Type: "visit_nearby", Description: "View 3 nearby users", XP: 15},
		},
		"wednesday": {
			{Type: "update_profile", Description: "Update your bio or interests", XP: 15},
			{Type: "upload_photo", Description: "Upload or update profile photo", XP: 20},
			{Type: "set_mood", Description: "Set your mood status", XP: 10},
		},
		"thursday": {
			{Type: "reveal_identity", Description: "Reveal your identity to someone", XP: 25},
			{Type: "accept_match", Description: "Accept a match request", XP: 15},
			{Type: "long_conversation", Description: "Have a 10+ message conversation", XP: 20},
		},
		"friday": {
			{Type: "weekend_prep", Description: "Update profile for weekend", XP: 15},
			{Type: "browse_profiles", Description: "View 5 user profiles", XP: 10},
			{Type: "active_chat", Description: "Chat with 3 different matches", XP: 20},
		},
		"saturday": {
			{Type: "weekend_warrior", Description: "Send 10 messages today", XP: 20},
			{Type: "new_connections", Description: "Add 2 new matches", XP: 25},
			{Type: "explore_hotspots", Description: "Check hotspots in your area", XP: 15},
		},
		"sunday": {
			{Type: "weekly_review", Description: "Review your matches", XP: 10},
			{Type: "complete_profile", Description: "Ensure profile is 100% complete", XP: 20},
			{Type: "plan_week", Description: "Set mood for the week ahead", XP: 15},
		},
	},
		Special{Definition: Definition{Type: "first_reveal", Description: "Make your first identity reveal", XP: 50}, OneTime: true},
		Special{Definition: Definition{Type: "verified_user", Description: "Verify your photo", XP: 30}, OneTime: true},
		Special{Definition: Definition{Type: "social_butterfly", Description: "Have 5 active matches", XP: 40}, Milestone: true},
	)
}

// DayName returns the lowercase English weekday of t in UTC
func DayName(t time.Time) string {
	return strings.ToLower(t.UTC().Weekday().String())
}

// StartOfDay returns UTC midnight of t's UTC date
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Resolve returns the day whose missions apply, falling back to monday
func (c *Catalog) Resolve(day string) string {
	day = strings.ToLower(day)
	if _, ok := c.days[day]; ok {
		return day
	}
	return FallbackDay
}

// ForDay returns a copy of the missions for day, or monday's when day is unknown
func (c *Catalog) ForDay(day string) []Definition {
	return append([]Definition(nil), c.days[c.Resolve(day)]...)
}

// Lookup finds a mission type in the missions applicable to day
func (c *Catalog) Lookup(day, missionType string) (Definition, bool) {
	for _, def := range c.days[c.Resolve(day)] {
		if def.Type == missionType {
			return def, true
		}
	}
	return Definition{}, false
}

// Specials returns the one-time and milestone missions
func (c *Catalog) Specials() []Special {
	return append([]Special(nil), c.specials...)
}

// Days lists catalog days, weekdays first in calendar order
func (c *Catalog) Days() []string {
	days := make([]string, 0, len(c.days))
	seen := make(map[string]bool, len(c.days))
	for _, d := range weekOrder {
		if _, ok := c.days[d]; ok {
			days = append(days, d)
			seen[d] = true
		}
	}
	for d := range c.days {
		if !seen[d] {
			days = append(days, d)
		}
	}
	return days
}

// DayPreview summarizes one day of the rotation
type DayPreview struct {
	Day      string        `json:"day"`
	Missions []PreviewItem `json:"missions"`
	TotalXP  int           `json:"total_xp"`
}

type PreviewItem struct {
	Description string `json:"description"`
	XP          int    `json:"xp"`
}

// WeeklyPreview is the full rotation with totals
type WeeklyPreview struct {
	Days          []DayPreview `json:"days"`
	Specials      []Special    `json:"specials,omitempty"`
	TotalWeeklyXP int          `json:"total_weekly_xp"`
}

// WeeklyPreview builds the preview; TotalWeeklyXP is the sum of the day totals
func (c *Catalog) WeeklyPreview() WeeklyPreview {
	preview := WeeklyPreview{Specials: c.Specials()}
	for _, day := range c.Days() {
		dp := DayPreview{Day: day, Missions: []PreviewItem{}}
		for _, def := range c.days[day] {
			dp.Missions = append(dp.Missions, PreviewItem{Description: def.Description, XP: def.XP})
			dp.TotalXP += def.XP
		}
		preview.Days = append(preview.Days, dp)
		preview.TotalWeeklyXP += dp.TotalXP
	}
	return preview
}
