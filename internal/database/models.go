package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/odoyewu/odoyewu/internal/geo"
	"github.com/odoyewu/odoyewu/internal/missions"
)

// Match statuses. New matches are always created as matched.
const (
	MatchStatusPending = "pending"
	MatchStatusMatched = "matched"
)

// Report types accepted by the safety endpoints
const (
	ReportTypeHarassment    = "harassment"
	ReportTypeSpam          = "spam"
	ReportTypeInappropriate = "inappropriate"
	ReportTypeFakeProfile   = "fake_profile"
	ReportTypeOther         = "other"

	ReportStatusPending = "pending"
)

// ReportTypes lists valid report types in display order
var ReportTypes = []string{
	ReportTypeHarassment,
	ReportTypeSpam,
	ReportTypeInappropriate,
	ReportTypeFakeProfile,
	ReportTypeOther,
}

// User represents an account. Latitude and Longitude are set together.
type User struct {
	ID                 string     `json:"id" db:"id"`
	Email              string     `json:"email" db:"email"`
	AnonymousHandle    string     `json:"anonymous_handle" db:"anonymous_handle"`
	RealName           *string    `json:"real_name,omitempty" db:"real_name"`
	Bio                *string    `json:"bio" db:"bio"`
	Interests          StringList `json:"interests" db:"interests"`
	MoodStatus         *string    `json:"mood_status" db:"mood_status"`
	ProfilePhotoURL    *string    `json:"profile_photo_url" db:"profile_photo_url"`
	Verified           bool       `json:"verified" db:"verified"`
	Latitude           *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude          *float64   `json:"longitude,omitempty" db:"longitude"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty" db:"last_location_update"`
	XP                 int        `json:"xp" db:"xp"`
	Level              int        `json:"level" db:"level"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Location returns the user's coordinate when both axes are set
func (u *User) Location() (geo.Coordinate, bool) {
	if u.Latitude == nil || u.Longitude == nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Latitude: *u.Latitude, Longitude: *u.Longitude}, true
}

// Progress returns the user's XP/level pair
func (u *User) Progress() missions.Progress {
	return missions.Progress{XP: u.XP, Level: u.Level}
}

// Public strips everything other users must not see
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:              u.ID,
		AnonymousHandle: u.AnonymousHandle,
		Bio:             u.Bio,
		Interests:       u.Interests,
		MoodStatus:      u.MoodStatus,
		ProfilePhotoURL: u.ProfilePhotoURL,
	}
}

// PublicProfile is the anonymous view of a user
type PublicProfile struct {
	ID              string     `json:"id"`
	AnonymousHandle string     `json:"anonymous_handle"`
	Bio             *string    `json:"bio"`
	Interests       StringList `json:"interests"`
	MoodStatus      *string    `json:"mood_status"`
	ProfilePhotoURL *string    `json:"profile_photo_url"`
}

// ProfileUpdate carries optional profile edits; nil fields are left unchanged
type ProfileUpdate struct {
	Bio             *string    `json:"bio"`
	Interests       StringList `json:"interests"`
	MoodStatus      *string    `json:"mood_status"`
	ProfilePhotoURL *string    `json:"profile_photo_url"`
}

// StringList is stored as a JSON array
type StringList []string

// Value encodes as a string; lib/pq would send []byte as bytea
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// Block is a directed edge: BlockerID no longer wants to see BlockedID
type Block struct {
	ID        string    `json:"id" db:"id"`
	BlockerID string    `json:"blocker_id" db:"blocker_id"`
	BlockedID string    `json:"blocked_id" db:"blocked_id"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BlockedUser is a block joined with the blocked user's handle
type BlockedUser struct {
	UserID          string    `json:"id"`
	AnonymousHandle string    `json:"anonymous_handle"`
	Reason          *string   `json:"reason"`
	BlockedAt       time.Time `json:"blocked_at"`
}

// Match is an unordered pair; UserAID is whoever initiated it
type Match struct {
	ID          string    `json:"id" db:"id"`
	UserAID     string    `json:"user_a_id" db:"user_a_id"`
	UserBID     string    `json:"user_b_id" db:"user_b_id"`
	Status      string    `json:"status" db:"status"`
	IsRevealedA bool      `json:"is_revealed_a" db:"is_revealed_a"`
	IsRevealedB bool      `json:"is_revealed_b" db:"is_revealed_b"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Involves reports whether userID is one side of the match
func (m *Match) Involves(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// Other returns the counterpart of userID
func (m *Match) Other(userID string) string {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// Side returns the reveal side owned by userID
func (m *Match) Side(userID string) RevealSide {
	if m.UserAID == userID {
		return RevealSideA
	}
	return RevealSideB
}

// RevealedBy reports whether userID has revealed in this match
func (m *Match) RevealedBy(userID string) bool {
	if m.Side(userID) == RevealSideA {
		return m.IsRevealedA
	}
	return m.IsRevealedB
}

// RevealSide selects which reveal flag of a match to update
type RevealSide string

const (
	RevealSideA RevealSide = "a"
	RevealSideB RevealSide = "b"
)

// Mission is a materialized daily mission
type Mission struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	MissionType string     `json:"mission_type" db:"mission_type"`
	XPReward    int        `json:"xp_reward" db:"xp_reward"`
	Completed   bool       `json:"completed" db:"completed"`
	AssignedOn  time.Time  `json:"assigned_on" db:"assigned_on"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Message is a chat message inside a match
type Message struct {
	ID        string    `json:"id" db:"id"`
	MatchID   string    `json:"match_id" db:"match_id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Report is a moderation report
type Report struct {
	ID             string    `json:"id" db:"id"`
	ReporterID     string    `json:"reporter_id" db:"reporter_id"`
	ReportedUserID string    `json:"reported_user_id" db:"reported_user_id"`
	ReportType     string    `json:"report_type" db:"report_type"`
	Description    *string   `json:"description,omitempty" db:"description"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MissionTotals aggregates a user's completed missions
type MissionTotals struct {
	Completed int `json:"completed"`
	XP        int `json:"xp"`
}
