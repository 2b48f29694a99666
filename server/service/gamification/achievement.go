package gamification

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// ListAchievementsRequest parameterizes the achievements listing API.
// Sort and Order are validated against the allowed column set; invalid
// values fall back to newest-first.
type ListAchievementsRequest struct {
	UserID   string
	Platform *platform.ID
	Limit    int
	Offset   int
	Sort     string
	Order    string
}

// ListAchievementsResponse is the {data, pagination} envelope.
type ListAchievementsResponse struct {
	Achievements []*store.Achievement
	Total        int64
	Limit        int
	Offset       int
}

// AchievementService records and lists earned achievements.
type AchievementService struct {
	store *store.Store
}

// NewAchievementService creates an achievement service on the store.
func NewAchievementService(s *store.Store) *AchievementService {
	return &AchievementService{store: s}
}

// Award records an earned achievement.
func (s *AchievementService) Award(ctx context.Context, userID string, p platform.ID, name, description, badgeIcon string, xpAwarded int) (*store.Achievement, error) {
	if !platform.IsValid(p) {
		return nil, errors.Errorf("unknown platform %q", p)
	}
	if name == "" {
		return nil, errors.New("achievement name is required")
	}

	achievement, err := s.store.CreateAchievement(ctx, &store.Achievement{
		UID:         shortuuid.New(),
		UserID:      userID,
		Platform:    p,
		Name:        name,
		Description: description,
		BadgeIcon:   badgeIcon,
		XPAwarded:   xpAwarded,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create achievement")
	}
	return achievement, nil
}

// List returns a page of the user's achievements with the total count.
func (s *AchievementService) List(ctx context.Context, request *ListAchievementsRequest) (*ListAchievementsResponse, error) {
	if request.Platform != nil && !platform.IsValid(*request.Platform) {
		return nil, errors.Errorf("unknown platform %q", *request.Platform)
	}

	limit := request.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := request.Offset
	if offset < 0 {
		offset = 0
	}

	orderBy := request.Sort
	if !store.AchievementOrderColumns[orderBy] {
		orderBy = "earned_ts"
	}
	order := request.Order
	if order != "asc" {
		order = "desc"
	}

	find := &store.FindAchievement{
		UserID:   &request.UserID,
		Platform: request.Platform,
		OrderBy:  orderBy,
		Order:    order,
		Limit:    &limit,
		Offset:   &offset,
	}

	achievements, err := s.store.ListAchievements(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list achievements")
	}
	total, err := s.store.CountAchievements(ctx, &store.FindAchievement{
		UserID:   &request.UserID,
		Platform: request.Platform,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count achievements")
	}

	return &ListAchievementsResponse{
		Achievements: achievements,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}
