package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/server/service/bridge"
)

type buildURLRequest struct {
	Target        platform.ID    `json:"target"`
	Path          string         `json:"path,omitempty"`
	PreserveState bool           `json:"preserveState,omitempty"`
	Referrer      string         `json:"referrer,omitempty"`
	State         map[string]any `json:"state,omitempty"`
}

type buildURLResponse struct {
	URL string `json:"url"`
}

// BuildNavigationURL computes a cross-platform URL. With PreserveState
// set, the caller's current-platform state is flushed first and the
// URL carries a navigation context for the destination to pick up.
// POST /api/v1/navigation/url
func (s *APIV1Service) BuildNavigationURL(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &buildURLRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	source := requestPlatform(c)

	var built string
	var err error
	if request.PreserveState {
		built, err = s.Navigation.NavigateWithStatePreservation(c.Request().Context(),
			session.UserID, source, request.Target, request.Path, request.State)
	} else {
		var navCtx *bridge.NavigationContext
		if request.Referrer != "" {
			navCtx = &bridge.NavigationContext{
				SourcePlatform: source,
				Referrer:       request.Referrer,
			}
		}
		built, err = s.Navigation.BuildURL(request.Target, request.Path, navCtx)
	}
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, buildURLResponse{URL: built})
}
