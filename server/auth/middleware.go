package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// SessionContextKey is the echo context key holding the Session.
	SessionContextKey = "auth-session"
	// accessTokenQueryParam lets EventSource clients authenticate,
	// since the browser API cannot set request headers.
	accessTokenQueryParam = "access_token"
)

// Middleware returns an echo middleware that authenticates requests
// with a bearer token and stores the session on the context. Paths in
// skip are served unauthenticated.
func Middleware(store *SessionStore, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]bool, len(skip))
	for _, path := range skip {
		skipped[path] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipped[c.Path()] {
				return next(c)
			}

			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			session, err := store.Current(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(SessionContextKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the authenticated session, or nil on
// unauthenticated routes.
func SessionFrom(c echo.Context) *Session {
	session, _ := c.Get(SessionContextKey).(*Session)
	return session
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam(accessTokenQueryParam)
}
