package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/realtime"
	"github.com/neothink-dao/platform-bridge/store"
)

func newNotificationService(driver *fakeDriver) (*NotificationService, realtime.Broker) {
	broker := realtime.NewMemoryBroker()
	return NewNotificationService(newTestStore(driver), broker), broker
}

func TestNotificationSendAndListByTargetPlatform(t *testing.T) {
	ctx := context.Background()
	service, broker := newNotificationService(newFakeDriver())
	defer broker.Close()

	sent, err := service.Send(ctx, &SendNotificationRequest{
		UserID:          "u1",
		SourcePlatform:  platform.Hub,
		TargetPlatforms: []platform.ID{platform.Ascenders, platform.Immortals},
		Title:           "Welcome",
		Content:         "Hi there",
		Priority:        store.PriorityMedium,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sent.UID)

	matched, err := service.List(ctx, "u1", []platform.ID{platform.Ascenders}, 0, 0)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, sent.UID, matched[0].UID)

	unmatched, err := service.List(ctx, "u1", []platform.ID{platform.Neothinkers}, 0, 0)
	require.NoError(t, err)
	require.Empty(t, unmatched)
}

func TestNotificationSendValidation(t *testing.T) {
	ctx := context.Background()
	service, broker := newNotificationService(newFakeDriver())
	defer broker.Close()

	_, err := service.Send(ctx, &SendNotificationRequest{
		UserID:         "u1",
		SourcePlatform: platform.Hub,
		Title:          "no targets",
	})
	require.Error(t, err)

	_, err = service.Send(ctx, &SendNotificationRequest{
		UserID:          "u1",
		SourcePlatform:  platform.Hub,
		TargetPlatforms: []platform.ID{platform.Ascenders},
		Title:           "bad priority",
		Priority:        store.NotificationPriority("extreme"),
	})
	require.Error(t, err)

	_, err = service.Send(ctx, &SendNotificationRequest{
		UserID:          "u1",
		SourcePlatform:  platform.ID("mars"),
		TargetPlatforms: []platform.ID{platform.Ascenders},
		Title:           "bad source",
	})
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestNotificationListNewestFirstWithPagination(t *testing.T) {
	ctx := context.Background()
	service, broker := newNotificationService(newFakeDriver())
	defer broker.Close()

	for _, title := range []string{"first", "second", "third"} {
		_, err := service.Send(ctx, &SendNotificationRequest{
			UserID:          "u1",
			SourcePlatform:  platform.Hub,
			TargetPlatforms: []platform.ID{platform.Hub},
			Title:           title,
		})
		require.NoError(t, err)
	}

	page, err := service.List(ctx, "u1", nil, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "third", page[0].Title)
	require.Equal(t, "second", page[1].Title)
}

func TestNotificationMarkAsReadScopedToOwner(t *testing.T) {
	ctx := context.Background()
	service, broker := newNotificationService(newFakeDriver())
	defer broker.Close()

	mine, err := service.Send(ctx, &SendNotificationRequest{
		UserID:          "u1",
		SourcePlatform:  platform.Hub,
		TargetPlatforms: []platform.ID{platform.Hub},
		Title:           "mine",
	})
	require.NoError(t, err)

	theirs, err := service.Send(ctx, &SendNotificationRequest{
		UserID:          "u2",
		SourcePlatform:  platform.Hub,
		TargetPlatforms: []platform.ID{platform.Hub},
		Title:           "theirs",
	})
	require.NoError(t, err)

	// u1 tries to mark both; only their own row flips.
	updated, err := service.MarkAsRead(ctx, "u1", []string{mine.UID, theirs.UID})
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	count, err := service.UnreadCount(ctx, "u2", nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestNotificationUnreadCount(t *testing.T) {
	ctx := context.Background()
	service, broker := newNotificationService(newFakeDriver())
	defer broker.Close()

	uids := make([]string, 0, 3)
	for _, title := range []string{"a", "b", "c"} {
		sent, err := service.Send(ctx, &SendNotificationRequest{
			UserID:          "u1",
			SourcePlatform:  platform.Hub,
			TargetPlatforms: []platform.ID{platform.Hub},
			Title:           title,
		})
		require.NoError(t, err)
		uids = append(uids, sent.UID)
	}

	updated, err := service.MarkAsRead(ctx, "u1", uids[:1])
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	count, err := service.UnreadCount(ctx, "u1", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestNotificationSubscribeReceivesSendAndRead(t *testing.T) {
	ctx := context.Background()
	service, broker := newNotificationService(newFakeDriver())
	defer broker.Close()

	events, cancel, err := service.Subscribe(ctx, "u1", []platform.ID{platform.Ascenders})
	require.NoError(t, err)
	defer cancel()

	sent, err := service.Send(ctx, &SendNotificationRequest{
		UserID:          "u1",
		SourcePlatform:  platform.Hub,
		TargetPlatforms: []platform.ID{platform.Ascenders},
		Title:           "ping",
	})
	require.NoError(t, err)

	select {
	case event := <-events:
		require.Equal(t, realtime.EventNotificationCreated, event.Type)
		require.Equal(t, sent.UID, event.Notification.UID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for created event")
	}

	_, err = service.MarkAsRead(ctx, "u1", []string{sent.UID})
	require.NoError(t, err)

	select {
	case event := <-events:
		require.Equal(t, realtime.EventNotificationRead, event.Type)
		require.Equal(t, []string{sent.UID}, event.UIDs)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for read event")
	}
}

func TestNotificationSubscribeWithPolling(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	service, broker := newNotificationService(driver)
	defer broker.Close()

	_, err := service.Send(ctx, &SendNotificationRequest{
		UserID:          "u1",
		SourcePlatform:  platform.Hub,
		TargetPlatforms: []platform.ID{platform.Hub},
		Title:           "poll me",
	})
	require.NoError(t, err)

	lists, cancel, err := service.SubscribeWithPolling(ctx, "u1", nil, 10, 10*time.Millisecond)
	require.NoError(t, err)

	select {
	case list := <-lists:
		require.Len(t, list, 1)
		require.Equal(t, "poll me", list[0].Title)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for poll result")
	}

	cancel()
	cancel()

	// The channel drains and closes after cancellation.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-lists:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
