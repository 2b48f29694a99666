package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/store"
)

type platformStateResponse struct {
	States      map[platform.ID]map[string]any    `json:"states"`
	LastVisited map[platform.ID]string            `json:"lastVisited"`
	RecentItems map[platform.ID][]string          `json:"recentItems"`
	Profiles    map[platform.ID]store.ProfileInfo `json:"profiles"`
	UpdatedTs   int64                             `json:"updatedTs"`
}

func toPlatformStateResponse(state *store.PlatformState) platformStateResponse {
	return platformStateResponse{
		States:      state.States,
		LastVisited: state.LastVisited,
		RecentItems: state.RecentItems,
		Profiles:    state.Profiles,
		UpdatedTs:   state.UpdatedTs,
	}
}

// GetState returns the caller's full state record, or one platform's
// sub-map when the platform query parameter is set.
// GET /api/v1/state
func (s *APIV1Service) GetState(c echo.Context) error {
	session := auth.SessionFrom(c)
	ctx := c.Request().Context()

	if raw := c.QueryParam("platform"); raw != "" {
		sub, err := s.State.InitialState(ctx, session.UserID, platform.ID(raw))
		if err != nil {
			return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
		}
		return c.JSON(http.StatusOK, sub)
	}

	state, err := s.State.GetState(ctx, session.UserID)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPlatformStateResponse(state))
}

// SaveState replaces one platform's state sub-map.
// PUT /api/v1/state/:platform
func (s *APIV1Service) SaveState(c echo.Context) error {
	session := auth.SessionFrom(c)

	state := map[string]any{}
	if err := c.Bind(&state); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	saved, err := s.State.SaveState(c.Request().Context(), session.UserID, platform.ID(c.Param("platform")), state)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPlatformStateResponse(saved))
}

type transferStateRequest struct {
	From platform.ID `json:"from"`
	To   platform.ID `json:"to"`
	Keys []string    `json:"keys,omitempty"`
}

// TransferState copies state keys between two platforms.
// POST /api/v1/state/transfer
func (s *APIV1Service) TransferState(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &transferStateRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	saved, err := s.State.Transfer(c.Request().Context(), session.UserID, request.From, request.To, request.Keys)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPlatformStateResponse(saved))
}

type addRecentItemRequest struct {
	ItemID   string `json:"itemId"`
	MaxItems int    `json:"maxItems,omitempty"`
}

// AddRecentItem moves an item to the front of a platform's recent list.
// POST /api/v1/state/:platform/recent
func (s *APIV1Service) AddRecentItem(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &addRecentItemRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	saved, err := s.State.AddRecentItem(c.Request().Context(), session.UserID,
		platform.ID(c.Param("platform")), request.ItemID, request.MaxItems)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPlatformStateResponse(saved))
}

// SaveProfileInfo caches the caller's display profile for one
// platform, so sibling platforms can render it without a cross-origin
// lookup.
// PUT /api/v1/state/:platform/profile
func (s *APIV1Service) SaveProfileInfo(c echo.Context) error {
	session := auth.SessionFrom(c)

	info := store.ProfileInfo{}
	if err := c.Bind(&info); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	saved, err := s.State.SaveProfileInfo(c.Request().Context(), session.UserID,
		platform.ID(c.Param("platform")), info)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toPlatformStateResponse(saved))
}

// ClearState resets the caller's record to the empty shape.
// DELETE /api/v1/state
func (s *APIV1Service) ClearState(c echo.Context) error {
	session := auth.SessionFrom(c)

	if _, err := s.State.Clear(c.Request().Context(), session.UserID); err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
