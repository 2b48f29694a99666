// Package store provides database access to all raw objects.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	preferencesCache   *cache.Cache // cache for user preferences, keyed (user, platform)
	platformStateCache *cache.Cache // cache for platform state records, keyed by user

	// Optional shared tier, nil when Redis is not configured.
	redisCache *cache.RedisCache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:             driver,
		profile:            profile,
		cacheConfig:        cacheConfig,
		preferencesCache:   cache.New(cacheConfig),
		platformStateCache: cache.New(cacheConfig),
	}

	return store
}

// WithRedisCache attaches the shared Redis tier. Preference reads check
// it after the memory tier; writes go through both.
func (s *Store) WithRedisCache(rc *cache.RedisCache) *Store {
	s.redisCache = rc
	return s
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.preferencesCache.Close()
	s.platformStateCache.Close()
	if s.redisCache != nil {
		s.redisCache.Close()
	}

	return s.driver.Close()
}

func preferencesCacheKey(userID string, p platform.ID) string {
	return fmt.Sprintf("prefs:%s:%s", userID, p)
}

func platformStateCacheKey(userID string) string {
	return "state:" + userID
}

// GetUserPreferences reads a preference record, consulting the memory
// tier, then Redis, then the driver. A nil result with nil error means
// no record exists; callers materialize defaults. Cache entries are
// owned by the cache: reads hand out clones, so a caller mutating its
// record cannot publish uncommitted state to later reads.
func (s *Store) GetUserPreferences(ctx context.Context, find *FindUserPreferences) (*UserPreferences, error) {
	if find.UserID != nil && find.Platform != nil {
		key := preferencesCacheKey(*find.UserID, *find.Platform)
		if value, ok := s.preferencesCache.Get(ctx, key); ok {
			if prefs, ok := value.(*UserPreferences); ok {
				return prefs.Clone(), nil
			}
		}
		if s.redisCache != nil {
			prefs := &UserPreferences{}
			if s.redisCache.GetJSON(ctx, key, prefs) {
				s.preferencesCache.Set(ctx, key, prefs.Clone())
				return prefs, nil
			}
		}
	}

	prefs, err := s.driver.GetUserPreferences(ctx, find)
	if err != nil {
		return nil, err
	}
	if prefs != nil && find.UserID != nil && find.Platform != nil {
		s.cachePreferences(ctx, prefs)
	}
	return prefs, nil
}

func (s *Store) UpsertUserPreferences(ctx context.Context, upsert *UserPreferences) (*UserPreferences, error) {
	prefs, err := s.driver.UpsertUserPreferences(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.cachePreferences(ctx, prefs)
	return prefs, nil
}

func (s *Store) cachePreferences(ctx context.Context, prefs *UserPreferences) {
	key := preferencesCacheKey(prefs.UserID, prefs.Platform)
	s.preferencesCache.Set(ctx, key, prefs.Clone())
	if s.redisCache != nil {
		// Shared tier is best-effort; a write failure only costs a
		// future cache miss.
		_ = s.redisCache.Set(ctx, key, prefs)
	}
}

// GetPlatformState reads the per-user state record through the memory
// cache. Nil result with nil error means no record exists yet. As with
// preferences, the cache owns its entry and reads hand out clones.
func (s *Store) GetPlatformState(ctx context.Context, find *FindPlatformState) (*PlatformState, error) {
	key := platformStateCacheKey(find.UserID)
	if value, ok := s.platformStateCache.Get(ctx, key); ok {
		if state, ok := value.(*PlatformState); ok {
			return state.Clone(), nil
		}
	}

	state, err := s.driver.GetPlatformState(ctx, find)
	if err != nil {
		return nil, err
	}
	if state != nil {
		s.platformStateCache.Set(ctx, key, state.Clone())
	}
	return state, nil
}

func (s *Store) UpsertPlatformState(ctx context.Context, upsert *PlatformState) (*PlatformState, error) {
	state, err := s.driver.UpsertPlatformState(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.platformStateCache.Set(ctx, platformStateCacheKey(state.UserID), state.Clone())
	return state, nil
}

func (s *Store) CreateNotification(ctx context.Context, create *Notification) (*Notification, error) {
	return s.driver.CreateNotification(ctx, create)
}

func (s *Store) ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error) {
	return s.driver.ListNotifications(ctx, find)
}

func (s *Store) CountNotifications(ctx context.Context, find *FindNotification) (int64, error) {
	return s.driver.CountNotifications(ctx, find)
}

func (s *Store) UpdateNotificationRead(ctx context.Context, update *UpdateNotificationRead) (int64, error) {
	return s.driver.UpdateNotificationRead(ctx, update)
}

func (s *Store) CreateAchievement(ctx context.Context, create *Achievement) (*Achievement, error) {
	return s.driver.CreateAchievement(ctx, create)
}

func (s *Store) ListAchievements(ctx context.Context, find *FindAchievement) ([]*Achievement, error) {
	return s.driver.ListAchievements(ctx, find)
}

func (s *Store) CountAchievements(ctx context.Context, find *FindAchievement) (int64, error) {
	return s.driver.CountAchievements(ctx, find)
}

func (s *Store) UpsertDocument(ctx context.Context, upsert *Document) (*Document, error) {
	return s.driver.UpsertDocument(ctx, upsert)
}

func (s *Store) ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error) {
	return s.driver.ListDocuments(ctx, find)
}

func (s *Store) MatchDocuments(ctx context.Context, opts *MatchDocumentsOptions) ([]*DocumentMatch, error) {
	return s.driver.MatchDocuments(ctx, opts)
}

func (s *Store) DeleteDocument(ctx context.Context, delete *DeleteDocument) error {
	return s.driver.DeleteDocument(ctx, delete)
}

func (s *Store) UpsertInstanceSetting(ctx context.Context, upsert *InstanceSetting) (*InstanceSetting, error) {
	return s.driver.UpsertInstanceSetting(ctx, upsert)
}

func (s *Store) GetInstanceSetting(ctx context.Context, find *FindInstanceSetting) (*InstanceSetting, error) {
	return s.driver.GetInstanceSetting(ctx, find)
}
