package v1

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
)

type signInRequest struct {
	// Token is an access token minted by the identity service; the
	// bridge verifies it and opens its own session.
	Token string `json:"token"`

	// Demo-mode only: open a session directly without a token.
	UserID    string        `json:"userId,omitempty"`
	Email     string        `json:"email,omitempty"`
	Platforms []platform.ID `json:"platforms,omitempty"`
}

type sessionResponse struct {
	UserID    string        `json:"userId"`
	Email     string        `json:"email,omitempty"`
	Platforms []platform.ID `json:"platforms,omitempty"`
}

// SignIn opens a bridge session from an identity-service token.
// POST /api/v1/auth/signin
func (s *APIV1Service) SignIn(c echo.Context) error {
	request := &signInRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	ctx := c.Request().Context()
	if request.Token != "" {
		session, err := s.Sessions.Current(request.Token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid identity token")
		}
		pair, err := s.Sessions.SignIn(ctx, session.UserID, session.Email, session.Platforms)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to open session")
		}
		return c.JSON(http.StatusOK, pair)
	}

	// Direct sign-in is a development convenience only.
	if !s.Profile.IsDev() || request.UserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "identity token is required")
	}
	pair, err := s.Sessions.SignIn(ctx, request.UserID, request.Email, request.Platforms)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open session")
	}
	return c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshSession rotates a refresh token into a new token pair.
// POST /api/v1/auth/refresh
func (s *APIV1Service) RefreshSession(c echo.Context) error {
	request := &refreshRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	pair, err := s.Sessions.Refresh(c.Request().Context(), request.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
	}
	return c.JSON(http.StatusOK, pair)
}

// SignOut invalidates a refresh session.
// POST /api/v1/auth/signout
func (s *APIV1Service) SignOut(c echo.Context) error {
	request := &refreshRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	s.Sessions.SignOut(c.Request().Context(), request.RefreshToken)
	return c.NoContent(http.StatusNoContent)
}

const oauthStateCookie = "neothink_oauth_state"

// AuthorizeOAuth redirects the browser to the external identity
// provider's consent page. The state is pinned in a short-lived cookie
// and checked again on callback.
// GET /api/v1/auth/oauth/authorize
func (s *APIV1Service) AuthorizeOAuth(c echo.Context) error {
	if s.OAuth == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "oauth sign-in is not configured")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate state")
	}
	state := hex.EncodeToString(buf)

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/v1/auth/oauth",
		MaxAge:   int((5 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, s.OAuth.AuthCodeURL(state))
}

// OAuthCallback exchanges the authorization code for the external
// identity and opens a bridge session for it.
// GET /api/v1/auth/oauth/callback
func (s *APIV1Service) OAuthCallback(c echo.Context) error {
	if s.OAuth == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "oauth sign-in is not configured")
	}

	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return echo.NewHTTPError(http.StatusBadRequest, "state mismatch")
	}
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "authorization code is required")
	}

	identity, err := s.OAuth.Exchange(c.Request().Context(), code)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authorization code exchange failed")
	}

	// Externally verified identities get access to every platform;
	// per-platform entitlements come from the identity service tokens.
	pair, err := s.Sessions.SignIn(c.Request().Context(), identity.ID, identity.Email, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open session")
	}
	return c.JSON(http.StatusOK, pair)
}

// GetSession returns the authenticated session.
// GET /api/v1/auth/session
func (s *APIV1Service) GetSession(c echo.Context) error {
	session := auth.SessionFrom(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, sessionResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		Platforms: session.Platforms,
	})
}
