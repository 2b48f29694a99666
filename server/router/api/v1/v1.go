// Package v1 exposes the bridge services over a JSON HTTP API.
package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/plugin/ai"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/server/middleware"
	"github.com/neothink-dao/platform-bridge/server/realtime"
	"github.com/neothink-dao/platform-bridge/server/service/bridge"
	"github.com/neothink-dao/platform-bridge/server/service/gamification"
	"github.com/neothink-dao/platform-bridge/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Broker  realtime.Broker

	Sessions      *auth.SessionStore
	OAuth         *auth.OAuthProvider
	Preferences   *bridge.PreferencesService
	Notifications *bridge.NotificationService
	State         *bridge.StateService
	Navigation    *bridge.NavigationService
	Achievements  *gamification.AchievementService

	// Search is nil unless AI is enabled on a PostgreSQL deployment.
	Search *ai.SearchService
}

func NewAPIV1Service(p *profile.Profile, st *store.Store, broker realtime.Broker) *APIV1Service {
	signer := auth.NewSigner(p.JWTSecret)
	stateService := bridge.NewStateService(st)

	service := &APIV1Service{
		Profile:       p,
		Store:         st,
		Broker:        broker,
		Sessions:      auth.NewSessionStore(signer),
		Preferences:   bridge.NewPreferencesService(st),
		Notifications: bridge.NewNotificationService(st, broker),
		State:         stateService,
		Navigation:    bridge.NewNavigationService(p.PlatformDomains, stateService, bridge.NewMemoryLocalStore()),
		Achievements:  gamification.NewAchievementService(st),
	}

	if p.OAuthClientID != "" {
		service.OAuth = auth.NewOAuthProvider(auth.OAuthProviderConfig{
			Name:         p.OAuthName,
			ClientID:     p.OAuthClientID,
			ClientSecret: p.OAuthClientSecret,
			AuthURL:      p.OAuthAuthURL,
			TokenURL:     p.OAuthTokenURL,
			UserInfoURL:  p.OAuthUserInfoURL,
			RedirectURL:  p.OAuthRedirectURL,
			Scopes:       p.OAuthScopes,
		})
	}

	if p.IsAIEnabled() && p.Driver == "postgres" {
		aiConfig := ai.NewConfigFromProfile(p)
		embedder, err := ai.NewEmbedder(&aiConfig.Embedding)
		if err != nil {
			slog.Warn("document search disabled", slog.String("error", err.Error()))
		} else {
			service.Search = ai.NewSearchService(st, embedder)
		}
	}

	return service
}

// Register mounts the API routes on the echo instance. Health and
// session endpoints are public; everything else requires a bearer
// token.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/healthz", s.GetHealth)

	group := e.Group("/api/v1")
	group.Use(auth.Middleware(s.Sessions,
		"/api/v1/auth/signin",
		"/api/v1/auth/refresh",
		"/api/v1/auth/signout",
		"/api/v1/auth/oauth/authorize",
		"/api/v1/auth/oauth/callback",
	))
	group.Use(middleware.RequestLogger(slog.Default()))

	group.POST("/auth/signin", s.SignIn)
	group.POST("/auth/refresh", s.RefreshSession)
	group.POST("/auth/signout", s.SignOut)
	group.GET("/auth/oauth/authorize", s.AuthorizeOAuth)
	group.GET("/auth/oauth/callback", s.OAuthCallback)
	group.GET("/auth/session", s.GetSession)

	group.GET("/preferences", s.GetPreferences)
	group.PATCH("/preferences", s.SavePreferences)
	group.POST("/preferences/sync", s.SyncPreferences)
	group.POST("/preferences/reset", s.ResetPreferences)

	group.GET("/notifications", s.ListNotifications)
	group.POST("/notifications", s.SendNotification)
	group.POST("/notifications/read", s.MarkNotificationsRead)
	group.GET("/notifications/unread-count", s.GetUnreadCount)
	group.GET("/notifications/stream", s.StreamNotifications)

	group.GET("/state", s.GetState)
	group.PUT("/state/:platform", s.SaveState)
	group.POST("/state/transfer", s.TransferState)
	group.POST("/state/:platform/recent", s.AddRecentItem)
	group.PUT("/state/:platform/profile", s.SaveProfileInfo)
	group.DELETE("/state", s.ClearState)

	group.GET("/achievements", s.ListAchievements)
	group.POST("/achievements", s.AwardAchievement)

	group.POST("/navigation/url", s.BuildNavigationURL)

	group.POST("/search", s.SearchDocuments)
	group.POST("/documents", s.IndexDocument)

	group.GET("/metrics/overview", s.GetMetricsOverview)
}
