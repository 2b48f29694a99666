// Package realtime delivers notification events to live subscribers,
// either in-process or through Redis pub/sub when the bridge runs as
// multiple instances.
package realtime

import (
	"context"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// EventType identifies the kind of change carried by an Event.
type EventType string

const (
	// EventNotificationCreated is published when a notification is sent.
	EventNotificationCreated EventType = "notification.created"
	// EventNotificationRead is published when read flags are flipped.
	EventNotificationRead EventType = "notification.read"
)

// Event is a row-change event scoped to one user. Created events carry
// the full notification; read events carry the affected UIDs.
type Event struct {
	Type         EventType           `json:"type"`
	UserID       string              `json:"userId"`
	Notification *store.Notification `json:"notification,omitempty"`
	UIDs         []string            `json:"uids,omitempty"`
	CreatedTs    int64               `json:"createdTs"`
}

// Matches reports whether the event is relevant to a subscription
// filtered by the given platforms. Read events have no platform
// scoping and always match.
func (e *Event) Matches(platforms []platform.ID) bool {
	if e.Type != EventNotificationCreated || e.Notification == nil || len(platforms) == 0 {
		return true
	}
	for _, target := range e.Notification.TargetPlatforms {
		for _, p := range platforms {
			if target == p {
				return true
			}
		}
	}
	return false
}

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Broker is the push channel between notification writes and live
// subscribers. Delivery is best-effort and eventually consistent with
// the store: a subscriber may observe an event before or after the
// corresponding row is visible to a poll.
type Broker interface {
	// Publish delivers an event to every matching subscriber.
	Publish(ctx context.Context, event *Event) error
	// Subscribe opens a channel of events for one user, optionally
	// filtered by target platform. The channel is closed on cancel.
	Subscribe(ctx context.Context, userID string, platforms []platform.ID) (<-chan *Event, CancelFunc, error)
	// Close tears down the broker and every open subscription.
	Close() error
}
