package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/server/internal/observability"
)

const (
	// PlatformContextKey is the echo context key holding the resolved platform.
	PlatformContextKey = "bridge-platform"
	// platformHeader lets clients behind a shared gateway name their
	// platform explicitly; it wins over Host resolution.
	platformHeader  = "X-Neothink-Platform"
	requestIDHeader = "X-Request-ID"
)

// PlatformResolver resolves the serving platform for each request from
// the platform header or the Host, and stores it on the context.
func PlatformResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := platform.Default
			if header := c.Request().Header.Get(platformHeader); header != "" {
				p = platform.Parse(header)
			} else {
				p = platform.ResolveFromHost(c.Request().Host)
			}
			c.Set(PlatformContextKey, p)
			return next(c)
		}
	}
}

// PlatformFrom returns the platform resolved for this request.
func PlatformFrom(c echo.Context) platform.ID {
	if p, ok := c.Get(PlatformContextKey).(platform.ID); ok {
		return p
	}
	return platform.Default
}

// RequestLogger attaches an observability request context to every
// request and logs its outcome with duration.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := ""
			if session := auth.SessionFrom(c); session != nil {
				userID = session.UserID
			}

			var reqCtx *observability.RequestContext
			if requestID := c.Request().Header.Get(requestIDHeader); requestID != "" {
				reqCtx = observability.NewRequestContextWithID(logger, requestID, PlatformFrom(c), userID)
			} else {
				reqCtx = observability.NewRequestContext(logger, PlatformFrom(c), userID)
			}

			ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(requestIDHeader, reqCtx.RequestID)

			err := next(c)

			operation := c.Request().Method + " " + c.Path()
			metrics := observability.GlobalMetrics()
			metrics.RecordRequest(operation)
			metrics.RecordDuration(operation, reqCtx.Duration())
			if err != nil {
				metrics.RecordFailure(operation)
			}

			attrs := []slog.Attr{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().Status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
			}
			if err != nil {
				reqCtx.Error("request failed", err, attrs...)
			} else {
				reqCtx.Info("request completed", attrs...)
			}
			return err
		}
	}
}
