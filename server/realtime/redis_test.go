package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

func newTestRedisBroker(t *testing.T) *RedisBroker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	broker := NewRedisBrokerWithClient(client)
	t.Cleanup(func() { broker.Close() })
	return broker
}

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	broker := newTestRedisBroker(t)

	ch, cancel, err := broker.Subscribe(ctx, "user-1", nil)
	require.NoError(t, err)
	defer cancel()

	err = broker.Publish(ctx, &Event{
		Type:   EventNotificationCreated,
		UserID: "user-1",
		Notification: &store.Notification{
			UID:             "n-1",
			UserID:          "user-1",
			Title:           "Welcome",
			TargetPlatforms: []platform.ID{platform.Hub},
		},
		CreatedTs: time.Now().Unix(),
	})
	require.NoError(t, err)

	event := receiveEvent(t, ch)
	require.Equal(t, EventNotificationCreated, event.Type)
	require.Equal(t, "user-1", event.UserID)
	require.Equal(t, "n-1", event.Notification.UID)
	require.Equal(t, []platform.ID{platform.Hub}, event.Notification.TargetPlatforms)
}

func TestRedisBrokerPlatformFilter(t *testing.T) {
	ctx := context.Background()
	broker := newTestRedisBroker(t)

	ch, cancel, err := broker.Subscribe(ctx, "user-1", []platform.ID{platform.Neothinkers})
	require.NoError(t, err)
	defer cancel()

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
			UID:             "n-nt",
			TargetPlatforms: []platform.ID{platform.Neothinkers},
		},
	})
	require.NoError(t, err)

	event := receiveEvent(t, ch)
	require.Equal(t, "n-nt", event.Notification.UID)
}

func TestRedisBrokerCancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	broker := newTestRedisBroker(t)

	ch, cancel, err := broker.Subscribe(ctx, "user-1", nil)
	require.NoError(t, err)

	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected channel closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestRedisBrokerSubscribeAfterClose(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	broker := NewRedisBrokerWithClient(client)
	require.NoError(t, broker.Close())

	_, _, err := broker.Subscribe(ctx, "user-1", nil)
	require.Error(t, err)
}
