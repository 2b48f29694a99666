package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/server/internal/observability"
	"github.com/neothink-dao/platform-bridge/server/service/bridge"
	"github.com/neothink-dao/platform-bridge/store"
)

type notificationResponse struct {
	UID             string                     `json:"uid"`
	SourcePlatform  platform.ID                `json:"sourcePlatform"`
	TargetPlatforms []platform.ID              `json:"targetPlatforms"`
	Title           string                     `json:"title"`
	Content         string                     `json:"content,omitempty"`
	ActionURL       *string                    `json:"actionUrl,omitempty"`
	Priority        store.NotificationPriority `json:"priority"`
	Read            bool                       `json:"read"`
	CreatedTs       int64                      `json:"createdTs"`
}

func toNotificationResponse(n *store.Notification) notificationResponse {
	return notificationResponse{
		UID:             n.UID,
		SourcePlatform:  n.SourcePlatform,
		TargetPlatforms: n.TargetPlatforms,
		Title:           n.Title,
		Content:         n.Content,
		ActionURL:       n.ActionURL,
		Priority:        n.Priority,
		Read:            n.Read,
		CreatedTs:       n.CreatedTs,
	}
}

// platformsParam parses the comma-separated platforms query parameter.
func platformsParam(c echo.Context) []platform.ID {
	raw := c.QueryParam("platforms")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	platforms := make([]platform.ID, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			platforms = append(platforms, platform.ID(part))
		}
	}
	return platforms
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// ListNotifications returns a page of the caller's notifications.
// GET /api/v1/notifications?platforms=hub,ascenders&limit=20&offset=0
func (s *APIV1Service) ListNotifications(c echo.Context) error {
	session := auth.SessionFrom(c)

	list, err := s.Notifications.List(c.Request().Context(), session.UserID,
		platformsParam(c), intParam(c, "limit", 20), intParam(c, "offset", 0))
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}

	response := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		response = append(response, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, response)
}

type sendNotificationRequest struct {
	UserID          string                     `json:"userId,omitempty"`
	SourcePlatform  platform.ID                `json:"sourcePlatform,omitempty"`
	TargetPlatforms []platform.ID              `json:"targetPlatforms"`
	Title           string                     `json:"title"`
	Content         string                     `json:"content,omitempty"`
	Priority        store.NotificationPriority `json:"priority,omitempty"`
	ActionURL       *string                    `json:"actionUrl,omitempty"`
}

// SendNotification creates one notification addressed to a set of
// target platforms. The recipient defaults to the caller; addressing
// another user requires admin platform access.
// POST /api/v1/notifications
func (s *APIV1Service) SendNotification(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &sendNotificationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	userID := request.UserID
	if userID == "" {
		userID = session.UserID
	}
	if userID != session.UserID && !sessionIsAdmin(session) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot send notifications for another user")
	}

	sourcePlatform := request.SourcePlatform
	if sourcePlatform == "" {
		sourcePlatform = requestPlatform(c)
	}

	sent, err := s.Notifications.Send(c.Request().Context(), &bridge.SendNotificationRequest{
		UserID:          userID,
		SourcePlatform:  sourcePlatform,
		TargetPlatforms: request.TargetPlatforms,
		Title:           request.Title,
		Content:         request.Content,
		Priority:        request.Priority,
		ActionURL:       request.ActionURL,
	})
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, toNotificationResponse(sent))
}

// sessionIsAdmin reports whether the caller carries an explicit admin
// grant. Acting on another user's behalf always requires one: the
// empty-list "all platforms" token convention covers reading and
// writing the caller's own records, never impersonation.
func sessionIsAdmin(session *auth.Session) bool {
	for _, granted := range session.Platforms {
		if granted == platform.Admin {
			return true
		}
	}
	return false
}

type markReadRequest struct {
	UIDs []string `json:"uids"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

// MarkNotificationsRead flips the read flag on the caller's rows.
// POST /api/v1/notifications/read
func (s *APIV1Service) MarkNotificationsRead(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &markReadRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	updated, err := s.Notifications.MarkAsRead(c.Request().Context(), session.UserID, request.UIDs)
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, markReadResponse{Updated: updated})
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

// GetUnreadCount counts the caller's unread notifications.
// GET /api/v1/notifications/unread-count?platforms=hub
func (s *APIV1Service) GetUnreadCount(c echo.Context) error {
	session := auth.SessionFrom(c)

	count, err := s.Notifications.UnreadCount(c.Request().Context(), session.UserID, platformsParam(c))
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, unreadCountResponse{Count: count})
}

// StreamNotifications pushes notification events to the client as
// server-sent events until the client disconnects.
// GET /api/v1/notifications/stream?platforms=hub
func (s *APIV1Service) StreamNotifications(c echo.Context) error {
	session := auth.SessionFrom(c)
	ctx := c.Request().Context()

	events, cancel, err := s.Notifications.Subscribe(ctx, session.UserID, platformsParam(c))
	if err != nil {
		return echo.NewHTTPError(bridgeErrorStatus(err), err.Error())
	}
	defer cancel()

	response := c.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set("Cache-Control", "no-cache")
	response.Header().Set("Connection", "keep-alive")
	response.WriteHeader(http.StatusOK)
	response.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(response, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return nil
			}
			response.Flush()
			observability.GlobalMetrics().RecordEventPushed()
		}
	}
}
