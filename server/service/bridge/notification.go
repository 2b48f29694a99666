package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/realtime"
	"github.com/neothink-dao/platform-bridge/store"
)

// defaultPollInterval is how often the polling fallback re-reads the
// notification list when the caller does not specify an interval.
const defaultPollInterval = 30 * time.Second

// SendNotificationRequest addresses one notification to a user across
// a set of target platforms. The target list is stored as a set on a
// single record, not fanned out.
type SendNotificationRequest struct {
	UserID          string
	SourcePlatform  platform.ID
	TargetPlatforms []platform.ID
	Title           string
	Content         string
	Priority        store.NotificationPriority
	ActionURL       *string
}

// NotificationService sends and reads cross-platform notifications and
// exposes push and polling delivery channels.
type NotificationService struct {
	store  *store.Store
	broker realtime.Broker
}

// NewNotificationService creates a notification service.
func NewNotificationService(s *store.Store, broker realtime.Broker) *NotificationService {
	return &NotificationService{store: s, broker: broker}
}

// Send writes one notification record and publishes a created event to
// live subscribers. Publish failures are logged, not returned: the
// record is durable and pollers will observe it.
func (s *NotificationService) Send(ctx context.Context, request *SendNotificationRequest) (*store.Notification, error) {
	if err := validatePlatform(request.SourcePlatform); err != nil {
		return nil, err
	}
	if len(request.TargetPlatforms) == 0 {
		return nil, errors.New("at least one target platform is required")
	}
	if err := validatePlatforms(request.TargetPlatforms); err != nil {
		return nil, err
	}
	if request.Title == "" {
		return nil, errors.New("notification title is required")
	}
	priority := request.Priority
	if priority == "" {
		priority = store.PriorityMedium
	}
	if !store.IsValidPriority(priority) {
		return nil, errors.Errorf("invalid priority %q", priority)
	}

	notification, err := s.store.CreateNotification(ctx, &store.Notification{
		UID:             shortuuid.New(),
		UserID:          request.UserID,
		SourcePlatform:  request.SourcePlatform,
		TargetPlatforms: request.TargetPlatforms,
		Title:           request.Title,
		Content:         request.Content,
		ActionURL:       request.ActionURL,
		Priority:        priority,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create notification")
	}

	if err := s.broker.Publish(ctx, &realtime.Event{
		Type:         realtime.EventNotificationCreated,
		UserID:       notification.UserID,
		Notification: notification,
		CreatedTs:    time.Now().Unix(),
	}); err != nil {
		slog.Warn("failed to publish notification event",
			slog.String("user_id", notification.UserID),
			slog.String("uid", notification.UID),
			slog.String("error", err.Error()))
	}
	return notification, nil
}

// List returns the user's notifications whose target set intersects
// the platform filter, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, platforms []platform.ID, limit, offset int) ([]*store.Notification, error) {
	if err := validatePlatforms(platforms); err != nil {
		return nil, err
	}

	find := &store.FindNotification{
		UserID:    &userID,
		Platforms: platforms,
	}
	if limit > 0 {
		find.Limit = &limit
		if offset > 0 {
			find.Offset = &offset
		}
	}
	list, err := s.store.ListNotifications(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return list, nil
}

// ListOrEmpty is the fail-open variant of List.
func (s *NotificationService) ListOrEmpty(ctx context.Context, userID string, platforms []platform.ID, limit, offset int) []*store.Notification {
	list, err := s.List(ctx, userID, platforms, limit, offset)
	if err != nil {
		slog.Warn("falling back to empty notification list",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return []*store.Notification{}
	}
	return list
}

// MarkAsRead flips the read flag for the given notification UIDs. The
// update is scoped to the user's own rows; UIDs belonging to other
// users are ignored. Returns the number of rows updated.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID string, uids []string) (int64, error) {
	if len(uids) == 0 {
		return 0, nil
	}

	updated, err := s.store.UpdateNotificationRead(ctx, &store.UpdateNotificationRead{
		UserID: userID,
		UIDs:   uids,
		Read:   true,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications as read")
	}

	if updated > 0 {
		if err := s.broker.Publish(ctx, &realtime.Event{
			Type:      realtime.EventNotificationRead,
			UserID:    userID,
			UIDs:      uids,
			CreatedTs: time.Now().Unix(),
		}); err != nil {
			slog.Warn("failed to publish read event",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}
	return updated, nil
}

// UnreadCount counts unread notifications matching the platform filter.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string, platforms []platform.ID) (int64, error) {
	if err := validatePlatforms(platforms); err != nil {
		return 0, err
	}

	read := false
	count, err := s.store.CountNotifications(ctx, &store.FindNotification{
		UserID:    &userID,
		Platforms: platforms,
		Read:      &read,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}
	return count, nil
}

// Subscribe opens a push channel of notification events for the user,
// optionally filtered by target platform. The returned cancel function
// is idempotent. No ordering guarantee holds between pushed events and
// concurrent List calls.
func (s *NotificationService) Subscribe(ctx context.Context, userID string, platforms []platform.ID) (<-chan *realtime.Event, realtime.CancelFunc, error) {
	if err := validatePlatforms(platforms); err != nil {
		return nil, nil, err
	}
	return s.broker.Subscribe(ctx, userID, platforms)
}

// SubscribeWithPolling is the fallback delivery mode: it re-reads the
// notification list on a fixed interval and emits the result on the
// returned channel. The cancel function stops the ticker and closes
// the channel.
func (s *NotificationService) SubscribeWithPolling(ctx context.Context, userID string, platforms []platform.ID, limit int, interval time.Duration) (<-chan []*store.Notification, realtime.CancelFunc, error) {
	if err := validatePlatforms(platforms); err != nil {
		return nil, nil, err
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if limit <= 0 {
		limit = 20
	}

	out := make(chan []*store.Notification, 1)
	done := make(chan struct{})

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				list, err := s.List(ctx, userID, platforms, limit, 0)
				if err != nil {
					slog.Warn("notification poll failed",
						slog.String("user_id", userID),
						slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- list:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}
	return out, cancel, nil
}
