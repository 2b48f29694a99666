package store

import (
	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// NotificationPriority is the delivery priority of a notification.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// IsValidPriority reports whether p is a known priority level.
func IsValidPriority(p NotificationPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is a cross-platform notification addressed to one
// recipient. The target-platform list is stored as a set on the single
// record; it is not fanned out into one record per platform. After
// creation only the read flag is ever mutated.
type Notification struct {
	ID              int32
	UID             string
	UserID          string
	SourcePlatform  platform.ID
	TargetPlatforms []platform.ID
	Title           string
	Content         string
	ActionURL       *string
	Priority        NotificationPriority
	Read            bool
	CreatedTs       int64
}

// FindNotification specifies the conditions for listing notifications.
// Platforms filters by intersection with the stored target set.
type FindNotification struct {
	UserID    *string
	UID       *string
	Platforms []platform.ID
	Read      *bool
	Limit     *int
	Offset    *int
}

// UpdateNotificationRead flips the read flag for a batch of
// notifications, scoped to their owner.
type UpdateNotificationRead struct {
	UserID string
	UIDs   []string
	Read   bool
}
