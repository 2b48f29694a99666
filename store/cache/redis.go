package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCache is the optional shared cache tier. It is only needed for
// multi-instance deployments; single instances run on the memory tier
// alone. Values are stored as JSON.
type RedisCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// RedisConfig holds the Redis connection configuration.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	DefaultTTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(config *RedisConfig) (*RedisCache, error) {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "neothink:"
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 30 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return &RedisCache{
		client:     client,
		keyPrefix:  config.KeyPrefix,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, keyPrefix string, defaultTTL time.Duration) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "neothink:"
	}
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &RedisCache{client: client, keyPrefix: keyPrefix, defaultTTL: defaultTTL}
}

func (r *RedisCache) key(key string) string {
	return r.keyPrefix + key
}

// Get retrieves the raw JSON bytes stored under key.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// GetJSON retrieves and unmarshals the value stored under key into out.
func (r *RedisCache) GetJSON(ctx context.Context, key string, out any) bool {
	data, ok := r.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Set stores a value with the default TTL.
func (r *RedisCache) Set(ctx context.Context, key string, value any) error {
	return r.SetWithTTL(ctx, key, value, r.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL.
func (r *RedisCache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache value")
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set cache value")
	}
	return nil
}

// Delete removes a value by key.
func (r *RedisCache) Delete(ctx context.Context, key string) {
	r.client.Del(ctx, r.key(key))
}

// Clear removes every key under this cache's prefix.
func (r *RedisCache) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		r.client.Del(ctx, iter.Val())
	}
}

// Close closes the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
