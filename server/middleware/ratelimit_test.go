package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	e := echo.New()
	handler := RateLimiter(RateLimiterConfig{Rate: 1, Burst: 3, ExpirationTTL: time.Minute})(
		func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		err := handler(e.NewContext(req, rec))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	e := echo.New()
	handler := RateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, ExpirationTTL: time.Minute})(
		func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	err := handler(e.NewContext(req, httptest.NewRecorder()))
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, httpErr.Code)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	e := echo.New()
	handler := RateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, ExpirationTTL: time.Minute})(
		func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

	// A different client keeps its own bucket.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))
}
