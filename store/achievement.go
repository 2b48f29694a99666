package store

import (
	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// Achievement records a gamification badge earned by a user on one
// platform. Immutable once earned.
type Achievement struct {
	ID          int32
	UID         string
	UserID      string
	Platform    platform.ID
	Name        string
	Description string
	BadgeIcon   string
	XPAwarded   int
	EarnedTs    int64
}

// FindAchievement specifies the conditions for listing achievements.
// OrderBy is a column name from AchievementOrderColumns; Order is
// "asc" or "desc".
type FindAchievement struct {
	UserID   *string
	Platform *platform.ID
	OrderBy  string
	Order    string
	Limit    *int
	Offset   *int
}

// AchievementOrderColumns are the columns the listing API may sort by.
var AchievementOrderColumns = map[string]bool{
	"earned_ts":  true,
	"name":       true,
	"xp_awarded": true,
}
