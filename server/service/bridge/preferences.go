package bridge

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// PreferencesPatch is a partial preference update. Nil fields are left
// untouched by a save; map fields replace the stored map when non-nil.
type PreferencesPatch struct {
	Theme                *store.ThemeMode                `json:"theme,omitempty"`
	NotificationsEnabled *bool                           `json:"notificationsEnabled,omitempty"`
	EmailDigest          *store.DigestFrequency          `json:"emailDigest,omitempty"`
	Locale               *string                         `json:"locale,omitempty"`
	Timezone             *string                         `json:"timezone,omitempty"`
	Accessibility        *store.AccessibilityPreferences `json:"accessibility,omitempty"`
	DashboardLayout      map[string]any                  `json:"dashboardLayout,omitempty"`
	Features             map[string]bool                 `json:"features,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *PreferencesPatch) IsEmpty() bool {
	return p.Theme == nil && p.NotificationsEnabled == nil && p.EmailDigest == nil &&
		p.Locale == nil && p.Timezone == nil && p.Accessibility == nil &&
		p.DashboardLayout == nil && p.Features == nil
}

func (p *PreferencesPatch) applyTo(prefs *store.UserPreferences) {
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	if p.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.EmailDigest != nil {
		prefs.EmailDigest = *p.EmailDigest
	}
	if p.Locale != nil {
		prefs.Locale = *p.Locale
	}
	if p.Timezone != nil {
		prefs.Timezone = *p.Timezone
	}
	if p.Accessibility != nil {
		prefs.Accessibility = *p.Accessibility
	}
	if p.DashboardLayout != nil {
		prefs.DashboardLayout = p.DashboardLayout
	}
	if p.Features != nil {
		prefs.Features = p.Features
	}
}

// SyncResult reports the per-platform outcome of a cross-platform
// preference sync. The operation is best-effort: platforms fail
// independently and successful writes are not rolled back.
type SyncResult struct {
	Succeeded []platform.ID
	Failed    map[platform.ID]error
}

// AllSucceeded reports whether every platform's write went through.
func (r *SyncResult) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// PreferencesService reads and writes per-user, per-platform
// preference records.
type PreferencesService struct {
	store *store.Store
}

// NewPreferencesService creates a preferences service on the store.
func NewPreferencesService(s *store.Store) *PreferencesService {
	return &PreferencesService{store: s}
}

// Get returns the stored preferences, or the materialized default
// record when none exists. Absence is not an error; the default is not
// written back.
func (s *PreferencesService) Get(ctx context.Context, userID string, p platform.ID) (*store.UserPreferences, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	prefs, err := s.store.GetUserPreferences(ctx, &store.FindUserPreferences{
		UserID:   &userID,
		Platform: &p,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user preferences")
	}
	if prefs == nil {
		return store.DefaultUserPreferences(userID, p), nil
	}
	return prefs, nil
}

// GetOrDefault is the fail-open variant of Get: transport failures are
// logged and degrade to the default record.
func (s *PreferencesService) GetOrDefault(ctx context.Context, userID string, p platform.ID) *store.UserPreferences {
	prefs, err := s.Get(ctx, userID, p)
	if err != nil {
		slog.Warn("falling back to default preferences",
			slog.String("user_id", userID),
			slog.String("platform", string(p)),
			slog.String("error", err.Error()))
		return store.DefaultUserPreferences(userID, p)
	}
	return prefs
}

// Save merges the patch into the stored record (or the defaults when
// none exists) and upserts the result.
func (s *PreferencesService) Save(ctx context.Context, userID string, p platform.ID, patch *PreferencesPatch) (*store.UserPreferences, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	prefs, err := s.Get(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	patch.applyTo(prefs)

	saved, err := s.store.UpsertUserPreferences(ctx, prefs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save user preferences")
	}
	return saved, nil
}

// SyncAcrossPlatforms applies the same patch independently to every
// listed platform, or to every core platform when the list is empty.
// Writes run concurrently; partial success is reported, not rolled
// back.
func (s *PreferencesService) SyncAcrossPlatforms(ctx context.Context, userID string, patch *PreferencesPatch, platforms []platform.ID) (*SyncResult, error) {
	if len(platforms) == 0 {
		platforms = platform.Core()
	}
	if err := validatePlatforms(platforms); err != nil {
		return nil, err
	}

	type outcome struct {
		platform platform.ID
		err      error
	}
	outcomes := make([]outcome, len(platforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range platforms {
		g.Go(func() error {
			_, err := s.Save(gctx, userID, p, patch)
			outcomes[i] = outcome{platform: p, err: err}
			// Errors are collected per platform, never propagated, so
			// one failure does not cancel the sibling writes.
			return nil
		})
	}
	_ = g.Wait()

	result := &SyncResult{Failed: map[platform.ID]error{}}
	for _, o := range outcomes {
		if o.err != nil {
			result.Failed[o.platform] = o.err
			slog.Warn("preference sync failed for platform",
				slog.String("user_id", userID),
				slog.String("platform", string(o.platform)),
				slog.String("error", o.err.Error()))
		} else {
			result.Succeeded = append(result.Succeeded, o.platform)
		}
	}
	return result, nil
}

// Reset overwrites the platform's record with the defaults.
func (s *PreferencesService) Reset(ctx context.Context, userID string, p platform.ID) (*store.UserPreferences, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertUserPreferences(ctx, store.DefaultUserPreferences(userID, p))
	if err != nil {
		return nil, errors.Wrap(err, "failed to reset user preferences")
	}
	return saved, nil
}
