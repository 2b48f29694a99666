package store

import (
	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// ProfileInfo is a lightweight per-platform profile cache entry.
type ProfileInfo struct {
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Level       int    `json:"level,omitempty"`
}

// PlatformState is the single per-user record holding free-form state
// partitioned by platform, plus bookkeeping maps. Every platform key
// must be a member of the closed platform set; unknown keys are
// rejected before the record reaches the driver.
type PlatformState struct {
	UserID      string
	States      map[platform.ID]map[string]any
	LastVisited map[platform.ID]string
	RecentItems map[platform.ID][]string
	Profiles    map[platform.ID]ProfileInfo
	CreatedTs   int64
	UpdatedTs   int64
}

// NewPlatformState returns the fully-defaulted empty shape created
// lazily on first access.
func NewPlatformState(userID string) *PlatformState {
	return &PlatformState{
		UserID:      userID,
		States:      map[platform.ID]map[string]any{},
		LastVisited: map[platform.ID]string{},
		RecentItems: map[platform.ID][]string{},
		Profiles:    map[platform.ID]ProfileInfo{},
	}
}

// Clone returns a deep copy down to the per-platform sub-maps. Cached
// records are cloned on every read and write so in-place edits by
// callers never reach the cache.
func (s *PlatformState) Clone() *PlatformState {
	clone := *s
	clone.States = make(map[platform.ID]map[string]any, len(s.States))
	for p, sub := range s.States {
		subClone := make(map[string]any, len(sub))
		for key, value := range sub {
			subClone[key] = value
		}
		clone.States[p] = subClone
	}
	clone.LastVisited = make(map[platform.ID]string, len(s.LastVisited))
	for p, path := range s.LastVisited {
		clone.LastVisited[p] = path
	}
	clone.RecentItems = make(map[platform.ID][]string, len(s.RecentItems))
	for p, items := range s.RecentItems {
		clone.RecentItems[p] = append([]string(nil), items...)
	}
	clone.Profiles = make(map[platform.ID]ProfileInfo, len(s.Profiles))
	for p, info := range s.Profiles {
		clone.Profiles[p] = info
	}
	return &clone
}

// FindPlatformState specifies the conditions for finding a platform
// state record.
type FindPlatformState struct {
	UserID string
}
