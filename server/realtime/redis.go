package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

const redisChannelPrefix = "neothink:notify:"

// RedisBroker fans events out across bridge instances through Redis
// pub/sub. Each user gets one channel; platform filtering happens on
// the subscriber side.
type RedisBroker struct {
	client *redis.Client

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewRedisBroker connects to Redis and verifies the connection.
func NewRedisBroker(addr, password string) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return &RedisBroker{client: client}, nil
}

// NewRedisBrokerWithClient wraps an existing client.
func NewRedisBrokerWithClient(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func channelFor(userID string) string {
	return redisChannelPrefix + userID
}

func (b *RedisBroker) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}
	if err := b.client.Publish(ctx, channelFor(event.UserID), payload).Err(); err != nil {
		return errors.Wrap(err, "failed to publish event")
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID string, platforms []platform.ID) (<-chan *Event, CancelFunc, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, errors.New("broker is closed")
	}
	pubsub := b.client.Subscribe(ctx, channelFor(userID))
	b.wg.Add(1)
	b.mu.Unlock()

	// Wait for the subscription to be confirmed so events published
	// right after Subscribe returns are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		b.wg.Done()
		return nil, nil, errors.Wrap(err, "failed to subscribe")
	}

	out := make(chan *Event, subscriberBuffer)
	go func() {
		defer b.wg.Done()
		defer close(out)
		for msg := range pubsub.Channel() {
			event := &Event{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				slog.Warn("failed to decode realtime event", slog.String("error", err.Error()))
				continue
			}
			if !event.Matches(platforms) {
				continue
			}
			select {
			case out <- event:
			default:
				slog.Warn("dropping realtime event for slow subscriber",
					slog.String("user_id", event.UserID),
					slog.String("event_type", string(event.Type)))
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// Closing the pubsub closes its Channel, which ends the
			// forwarding goroutine and closes out.
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

func (b *RedisBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.client.Close()
	b.wg.Wait()
	return err
}
