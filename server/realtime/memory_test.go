package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

func receiveEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()
	defer broker.Close()

	ch, cancel, err := broker.Subscribe(ctx, "user-1", nil)
	require.NoError(t, err)
	defer cancel()

	err = broker.Publish(ctx, &Event{
		Type:   EventNotificationCreated,
		UserID: "user-1",
		Notification: &store.Notification{
			UID:             "n-1",
			Title:           "Welcome",
			TargetPlatforms: []platform.ID{platform.Hub},
		},
	})
	require.NoError(t, err)

	event := receiveEvent(t, ch)
	require.Equal(t, EventNotificationCreated, event.Type)
	require.Equal(t, "n-1", event.Notification.UID)
}

func TestMemoryBrokerIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()
	defer broker.Close()

	ch1, cancel1, err := broker.Subscribe(ctx, "user-1", nil)
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := broker.Subscribe(ctx, "user-2", nil)
	require.NoError(t, err)
	defer cancel2()

	err = broker.Publish(ctx, &Event{
		Type:   EventNotificationCreated,
		UserID: "user-2",
		Notification: &store.Notification{
			UID:             "n-2",
			TargetPlatforms: []platform.ID{platform.Hub},
		},
	})
	require.NoError(t, err)

	event := receiveEvent(t, ch2)
	require.Equal(t, "n-2", event.Notification.UID)

	select {
	case leaked := <-ch1:
		t.Fatalf("user-1 received event for user-2: %+v", leaked)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBrokerPlatformFilter(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()
	defer broker.Close()

	ch, cancel, err := broker.Subscribe(ctx, "user-1", []platform.ID{platform.Immortals})
	require.NoError(t, err)
	defer cancel()

	// Not targeted at immortals, must be filtered out.
	err = broker.Publish(ctx, &Event{
		Type:   EventNotificationCreated,
		UserID: "user-1",
		Notification: &store.Notification{
			UID:             "n-hub",
			TargetPlatforms: []platform.ID{platform.Hub},
		},
	})
	require.NoError(t, err)

	err = broker.Publish(ctx, &Event{
		Type:   EventNotificationCreated,
		UserID: "user-1",
		Notification: &store.Notification{
			UID:             "n-imm",
			TargetPlatforms: []platform.ID{platform.Immortals, platform.Hub},
		},
	})
	require.NoError(t, err)

	event := receiveEvent(t, ch)
	require.Equal(t, "n-imm", event.Notification.UID)
}

func TestMemoryBrokerReadEventsBypassFilter(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()
	defer broker.Close()

	ch, cancel, err := broker.Subscribe(ctx, "user-1", []platform.ID{platform.Ascenders})
	require.NoError(t, err)
	defer cancel()

	err = broker.Publish(ctx, &Event{
		Type:   EventNotificationRead,
		UserID: "user-1",
		UIDs:   []string{"n-1", "n-2"},
	})
	require.NoError(t, err)

	event := receiveEvent(t, ch)
	require.Equal(t, EventNotificationRead, event.Type)
	require.Equal(t, []string{"n-1", "n-2"}, event.UIDs)
}

func TestMemoryBrokerCancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()
	defer broker.Close()

	ch, cancel, err := broker.Subscribe(ctx, "user-1", nil)
	require.NoError(t, err)

	cancel()
	// Cancel twice must be safe.
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected channel closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestMemoryBrokerCloseEndsSubscribers(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()

	ch, _, err := broker.Subscribe(ctx, "user-1", nil)
	require.NoError(t, err)

	require.NoError(t, broker.Close())

	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected channel closed after broker close")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after broker close")
	}

	_, _, err = broker.Subscribe(ctx, "user-1", nil)
	require.Error(t, err)
}
