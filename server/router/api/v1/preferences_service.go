package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/server/middleware"
	"github.com/neothink-dao/platform-bridge/server/service/bridge"
	"github.com/neothink-dao/platform-bridge/store"
)

type preferencesResponse struct {
	Platform             platform.ID                    `json:"platform"`
	Theme                store.ThemeMode                `json:"theme"`
	NotificationsEnabled bool                           `json:"notificationsEnabled"`
	EmailDigest          store.DigestFrequency          `json:"emailDigest"`
	Locale               string                         `json:"locale"`
	Timezone             string                         `json:"timezone"`
	Accessibility        store.AccessibilityPreferences `json:"accessibility"`
	DashboardLayout      map[string]any                 `json:"dashboardLayout"`
	Features             map[string]bool                `json:"features"`
	UpdatedTs            int64                          `json:"updatedTs"`
}

func toPreferencesResponse(prefs *store.UserPreferences) preferencesResponse {
	return preferencesResponse{
		Platform:             prefs.Platform,
		Theme:                prefs.Theme,
		NotificationsEnabled: prefs.NotificationsEnabled,
		EmailDigest:          prefs.EmailDigest,
		Locale:               prefs.Locale,
		Timezone:             prefs.Timezone,
		Accessibility:        prefs.Accessibility,
		DashboardLayout:      prefs.DashboardLayout,
		Features:             prefs.Features,
		UpdatedTs:            prefs.UpdatedTs,
	}
}

// requestPlatform picks the platform from the query parameter, falling
// back to the platform resolved from the request host.
func requestPlatform(c echo.Context) platform.ID {
	if raw := c.QueryParam("platform"); raw != "" {
		return platform.ID(raw)
	}
	return middleware.PlatformFrom(c)
}

func bridgeErrorStatus(err error) int {
	if errors.Is(err, bridge.ErrUnknownPlatform) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GetPreferences returns the caller's preferences for one platform,
// defaults included when nothing is stored yet.
// GET /api/v1/preferences?platform=hub
func (s *APIV1Service) GetPreferences(c echo.Context) error {
	session := auth.SessionFrom(c)

	prefs, err := s.Preferences.Get(c.Request().Context(), session.UserID, requestPlatform(c))
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPreferencesResponse(prefs))
}

// SavePreferences merges a partial update into the caller's record.
// PATCH /api/v1/preferences?platform=hub
func (s *APIV1Service) SavePreferences(c echo.Context) error {
	session := auth.SessionFrom(c)

	patch := &bridge.PreferencesPatch{}
	if err := c.Bind(patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if patch.IsEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, "empty preferences patch")
	}

	saved, err := s.Preferences.Save(c.Request().Context(), session.UserID, requestPlatform(c), patch)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPreferencesResponse(saved))
}

type syncPreferencesRequest struct {
	Patch     bridge.PreferencesPatch `json:"patch"`
	Platforms []platform.ID           `json:"platforms,omitempty"`
}

type syncPreferencesResponse struct {
	Succeeded []platform.ID          `json:"succeeded"`
	Failed    map[platform.ID]string `json:"failed,omitempty"`
}

// SyncPreferences applies one patch to several platforms, best-effort.
// POST /api/v1/preferences/sync
func (s *APIV1Service) SyncPreferences(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &syncPreferencesRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Patch.IsEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, "empty preferences patch")
	}

	result, err := s.Preferences.SyncAcrossPlatforms(c.Request().Context(), session.UserID, &request.Patch, request.Platforms)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}

	response := syncPreferencesResponse{Succeeded: result.Succeeded}
	if len(result.Failed) > 0 {
		response.Failed = make(map[platform.ID]string, len(result.Failed))
		for p, ferr := range result.Failed {
			response.Failed[p] = ferr.Error()
		}
	}
	status := http.StatusOK
	if !result.AllSucceeded() {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, response)
}

// ResetPreferences restores one platform's record to the defaults.
// POST /api/v1/preferences/reset?platform=hub
func (s *APIV1Service) ResetPreferences(c echo.Context) error {
	session := auth.SessionFrom(c)

	reset, err := s.Preferences.Reset(c.Request().Context(), session.UserID, requestPlatform(c))
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPreferencesResponse(reset))
}
