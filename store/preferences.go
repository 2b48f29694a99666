package store

import (
	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// ThemeMode is the visual theme selected for a platform.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// DigestFrequency controls how often email digests are delivered.
type DigestFrequency string

const (
	DigestNone   DigestFrequency = "none"
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
)

// AccessibilityPreferences holds the accessibility sub-record.
type AccessibilityPreferences struct {
	ReduceMotion bool `json:"reduceMotion"`
	HighContrast bool `json:"highContrast"`
	LargeText    bool `json:"largeText"`
}

// UserPreferences is owned by exactly one (user, platform) pair. Records
// are created lazily with defaults, updated by explicit saves, and reset
// to defaults rather than deleted.
type UserPreferences struct {
	UserID               string
	Platform             platform.ID
	Theme                ThemeMode
	NotificationsEnabled bool
	EmailDigest          DigestFrequency
	Locale               string
	Timezone             string
	Accessibility        AccessibilityPreferences
	DashboardLayout      map[string]any
	Features             map[string]bool
	CreatedTs            int64
	UpdatedTs            int64
}

// DefaultUserPreferences materializes the documented default record for
// a (user, platform) pair. Absence of a stored record is not an error;
// readers receive this value instead.
func DefaultUserPreferences(userID string, p platform.ID) *UserPreferences {
	return &UserPreferences{
		UserID:               userID,
		Platform:             p,
		Theme:                ThemeSystem,
		NotificationsEnabled: true,
		EmailDigest:          DigestWeekly,
		Locale:               "en",
		Timezone:             "UTC",
		Accessibility:        AccessibilityPreferences{},
		DashboardLayout:      map[string]any{},
		Features:             map[string]bool{},
	}
}

// Clone returns a deep copy. Cached records are cloned on every read
// and write so in-place edits by callers never reach the cache.
func (p *UserPreferences) Clone() *UserPreferences {
	clone := *p
	clone.DashboardLayout = make(map[string]any, len(p.DashboardLayout))
	for key, value := range p.DashboardLayout {
		clone.DashboardLayout[key] = value
	}
	clone.Features = make(map[string]bool, len(p.Features))
	for key, value := range p.Features {
		clone.Features[key] = value
	}
	return &clone
}

// FindUserPreferences specifies the conditions for finding user preferences.
type FindUserPreferences struct {
	UserID   *string
	Platform *platform.ID
}
