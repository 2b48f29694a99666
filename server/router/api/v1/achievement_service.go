package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/server/auth"
	"github.com/neothink-dao/platform-bridge/server/service/gamification"
	"github.com/neothink-dao/platform-bridge/store"
)

type achievementResponse struct {
	UID         string      `json:"uid"`
	Platform    platform.ID `json:"platform"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	BadgeIcon   string      `json:"badgeIcon,omitempty"`
	XPAwarded   int         `json:"xpAwarded"`
	EarnedTs    int64       `json:"earnedTs"`
}

type paginationResponse struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type listAchievementsResponse struct {
	Data       []achievementResponse `json:"data"`
	Pagination paginationResponse    `json:"pagination"`
}

func toAchievementResponse(a *store.Achievement) achievementResponse {
	return achievementResponse{
		UID:         a.UID,
		Platform:    a.Platform,
		Name:        a.Name,
		Description: a.Description,
		BadgeIcon:   a.BadgeIcon,
		XPAwarded:   a.XPAwarded,
		EarnedTs:    a.EarnedTs,
	}
}

// ListAchievements returns a sorted, paginated page of the caller's
// achievements in the {data, pagination} envelope.
// GET /api/v1/achievements?limit=20&offset=0&sort=earned_ts&order=desc
func (s *APIV1Service) ListAchievements(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &gamification.ListAchievementsRequest{
		UserID: session.UserID,
		Limit:  intParam(c, "limit", 20),
		Offset: intParam(c, "offset", 0),
		Sort:   c.QueryParam("sort"),
		Order:  c.QueryParam("order"),
	}
	if raw := c.QueryParam("platform"); raw != "" {
		p := platform.ID(raw)
		request.Platform = &p
	}

	resp, err := s.Achievements.List(c.Request().Context(), request)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	data := make([]achievementResponse, 0, len(resp.Achievements))
	for _, a := range resp.Achievements {
		data = append(data, toAchievementResponse(a))
	}
	return c.JSON(http.StatusOK, listAchievementsResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:  resp.Total,
			Limit:  resp.Limit,
			Offset: resp.Offset,
		},
	})
}

type awardAchievementRequest struct {
	UserID      string      `json:"userId,omitempty"`
	Platform    platform.ID `json:"platform,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	BadgeIcon   string      `json:"badgeIcon,omitempty"`
	XPAwarded   int         `json:"xpAwarded,omitempty"`
}

// AwardAchievement records an earned achievement. Awarding on behalf
// of another user requires admin platform access.
// POST /api/v1/achievements
func (s *APIV1Service) AwardAchievement(c echo.Context) error {
	session := auth.SessionFrom(c)

	request := &awardAchievementRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	userID := request.UserID
	if userID == "" {
		userID = session.UserID
	}
	if userID != session.UserID && !sessionIsAdmin(session) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot award achievements for another user")
	}

	p := request.Platform
	if p == "" {
		p = requestPlatform(c)
	}

	awarded, err := s.Achievements.Award(c.Request().Context(), userID, p,
		request.Name, request.Description, request.BadgeIcon, request.XPAwarded)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toAchievementResponse(awarded))
}
