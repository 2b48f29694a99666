package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls further behind than this loses events rather than
// blocking publishers.
const subscriberBuffer = 16

type memorySubscriber struct {
	userID    string
	platforms []platform.ID
	ch        chan *Event
}

// MemoryBroker is the in-process Broker used by single-instance
// deployments and tests.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string]*memorySubscriber
	closed      bool
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subscribers: make(map[string]*memorySubscriber),
	}
}

func (b *MemoryBroker) Publish(_ context.Context, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for id, sub := range b.subscribers {
		if sub.userID != event.UserID || !event.Matches(sub.platforms) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Slow subscriber: drop rather than block the publisher.
			// Clients recover missed events on their next poll.
			slog.Warn("dropping realtime event for slow subscriber",
				slog.String("subscription_id", id),
				slog.String("user_id", event.UserID),
				slog.String("event_type", string(event.Type)))
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, userID string, platforms []platform.ID) (<-chan *Event, CancelFunc, error) {
	sub := &memorySubscriber{
		userID:    userID,
		platforms: platforms,
		ch:        make(chan *Event, subscriberBuffer),
	}
	id := uuid.New().String()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, errors.New("broker is closed")
	}
	b.subscribers[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		close(sub.ch)
	}
	return nil
}
