// Package server assembles the HTTP server: echo instance, shared
// middleware, the realtime broker and the v1 API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/server/middleware"
	"github.com/neothink-dao/platform-bridge/server/realtime"
	apiv1 "github.com/neothink-dao/platform-bridge/server/router/api/v1"
	"github.com/neothink-dao/platform-bridge/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	broker     realtime.Broker
	apiService *apiv1.APIV1Service
}

// NewServer wires the echo instance, middleware stack and API routes.
// With RedisAddr configured the realtime broker runs on Redis pub/sub
// so events reach subscribers on every instance; otherwise it is
// in-process.
func NewServer(_ context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     platformOrigins(p),
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
		AllowCredentials: true,
	}))
	e.Use(middleware.PlatformResolver())
	e.Use(middleware.RateLimiter(middleware.DefaultRateLimiterConfig()))

	var broker realtime.Broker
	if p.RedisAddr != "" {
		redisBroker, err := realtime.NewRedisBroker(p.RedisAddr, p.RedisPassword)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create redis broker")
		}
		broker = redisBroker
	} else {
		broker = realtime.NewMemoryBroker()
	}

	apiService := apiv1.NewAPIV1Service(p, st, broker)
	apiService.Register(e)

	return &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
		broker:     broker,
		apiService: apiService,
	}, nil
}

// platformOrigins lists the configured platform domains plus localhost
// for development.
func platformOrigins(p *profile.Profile) []string {
	origins := make([]string, 0, len(p.PlatformDomains)+1)
	for _, domain := range p.PlatformDomains {
		origins = append(origins, domain)
	}
	if p.IsDev() {
		origins = append(origins, "http://localhost:3000", fmt.Sprintf("http://localhost:%d", p.Port))
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

// Start begins serving. It blocks until the listener fails.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("mode", s.Profile.Mode),
		slog.String("driver", s.Profile.Driver))
	return s.echoServer.Start(address)
}

// Shutdown drains in-flight requests, closes the broker and the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", slog.String("error", err.Error()))
	}
	if err := s.broker.Close(); err != nil {
		slog.Error("failed to close realtime broker", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}
