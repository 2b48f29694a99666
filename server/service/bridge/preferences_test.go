package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

func themePtr(v store.ThemeMode) *store.ThemeMode              { return &v }
func digestPtr(v store.DigestFrequency) *store.DigestFrequency { return &v }
func boolPtr(v bool) *bool                                     { return &v }
func strPtr(v string) *string                                  { return &v }

func TestPreferencesGetReturnsDefaultsWhenMissing(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	prefs, err := service.Get(ctx, "user-1", platform.Hub)
	require.NoError(t, err)
	require.NotNil(t, prefs)
	require.Equal(t, store.DefaultUserPreferences("user-1", platform.Hub), prefs)
}

func TestPreferencesGetRejectsUnknownPlatform(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	_, err := service.Get(ctx, "user-1", platform.ID("mars"))
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestPreferencesSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	saved, err := service.Save(ctx, "user-1", platform.Ascenders, &PreferencesPatch{
		Theme:  themePtr(store.ThemeDark),
		Locale: strPtr("de"),
	})
	require.NoError(t, err)
	require.Equal(t, store.ThemeDark, saved.Theme)

	got, err := service.Get(ctx, "user-1", platform.Ascenders)
	require.NoError(t, err)
	require.Equal(t, store.ThemeDark, got.Theme)
	require.Equal(t, "de", got.Locale)
	// Untouched fields keep their defaults.
	require.True(t, got.NotificationsEnabled)
	require.Equal(t, store.DigestWeekly, got.EmailDigest)
}

func TestPreferencesSaveMergesIntoExisting(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	_, err := service.Save(ctx, "user-1", platform.Hub, &PreferencesPatch{
		Theme: themePtr(store.ThemeDark),
	})
	require.NoError(t, err)

	_, err = service.Save(ctx, "user-1", platform.Hub, &PreferencesPatch{
		EmailDigest: digestPtr(store.DigestNone),
	})
	require.NoError(t, err)

	got, err := service.Get(ctx, "user-1", platform.Hub)
	require.NoError(t, err)
	require.Equal(t, store.ThemeDark, got.Theme)
	require.Equal(t, store.DigestNone, got.EmailDigest)
}

func TestPreferencesFailedSaveDoesNotLeakIntoReads(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	service := NewPreferencesService(newTestStore(driver))

	_, err := service.Save(ctx, "user-1", platform.Hub, &PreferencesPatch{
		Theme: themePtr(store.ThemeDark),
	})
	require.NoError(t, err)

	driver.failing = true
	_, err = service.Save(ctx, "user-1", platform.Hub, &PreferencesPatch{
		Theme:  themePtr(store.ThemeLight),
		Locale: strPtr("fr"),
	})
	require.Error(t, err)
	driver.failing = false

	// The rejected write must not surface as committed state.
	got, err := service.Get(ctx, "user-1", platform.Hub)
	require.NoError(t, err)
	require.Equal(t, store.ThemeDark, got.Theme)
	require.Equal(t, "en", got.Locale)
}

func TestPreferencesReadsAreIsolatedFromCallerMutation(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	_, err := service.Save(ctx, "user-1", platform.Hub, &PreferencesPatch{
		Features: map[string]bool{"beta": true},
	})
	require.NoError(t, err)

	first, err := service.Get(ctx, "user-1", platform.Hub)
	require.NoError(t, err)
	first.Theme = store.ThemeLight
	first.Features["beta"] = false

	second, err := service.Get(ctx, "user-1", platform.Hub)
	require.NoError(t, err)
	require.Equal(t, store.ThemeSystem, second.Theme)
	require.True(t, second.Features["beta"])
}

func TestPreferencesGetOrDefaultFailsOpen(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	service := NewPreferencesService(newTestStore(driver))

	driver.failing = true
	prefs := service.GetOrDefault(ctx, "user-1", platform.Hub)
	require.Equal(t, store.DefaultUserPreferences("user-1", platform.Hub), prefs)
}

func TestPreferencesSyncAcrossPlatforms(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	result, err := service.SyncAcrossPlatforms(ctx, "user-1", &PreferencesPatch{
		Theme: themePtr(store.ThemeLight),
	}, nil)
	require.NoError(t, err)
	require.True(t, result.AllSucceeded())
	require.ElementsMatch(t, platform.Core(), result.Succeeded)

	for _, p := range platform.Core() {
		got, err := service.Get(ctx, "user-1", p)
		require.NoError(t, err)
		require.Equal(t, store.ThemeLight, got.Theme, "platform %s", p)
	}
}

func TestPreferencesSyncSubsetOfPlatforms(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	result, err := service.SyncAcrossPlatforms(ctx, "user-1", &PreferencesPatch{
		NotificationsEnabled: boolPtr(false),
	}, []platform.ID{platform.Hub, platform.Immortals})
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 2)

	got, err := service.Get(ctx, "user-1", platform.Ascenders)
	require.NoError(t, err)
	require.True(t, got.NotificationsEnabled, "unlisted platform must keep defaults")
}

func TestPreferencesResetDiscardsCustomization(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(newTestStore(newFakeDriver()))

	_, err := service.Save(ctx, "user-1", platform.Neothinkers, &PreferencesPatch{
		Theme:    themePtr(store.ThemeDark),
		Locale:   strPtr("fr"),
		Features: map[string]bool{"beta": true},
	})
	require.NoError(t, err)

	_, err = service.Reset(ctx, "user-1", platform.Neothinkers)
	require.NoError(t, err)

	got, err := service.Get(ctx, "user-1", platform.Neothinkers)
	require.NoError(t, err)
	defaults := store.DefaultUserPreferences("user-1", platform.Neothinkers)
	require.Equal(t, defaults.Theme, got.Theme)
	require.Equal(t, defaults.Locale, got.Locale)
	require.Empty(t, got.Features)
}
