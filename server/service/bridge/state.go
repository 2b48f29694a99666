package bridge

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// defaultMaxRecentItems caps a platform's recent-items list when the
// caller does not specify a limit.
const defaultMaxRecentItems = 10

// StateService persists the per-user platform state record and moves
// state between platforms. All mutations are read-modify-write without
// locking: concurrent writers targeting the same user race last-writer-
// wins, an accepted limitation of this layer.
type StateService struct {
	store *store.Store
}

// NewStateService creates a state service on the store.
func NewStateService(s *store.Store) *StateService {
	return &StateService{store: s}
}

// GetState returns the user's full state record, or the fully-defaulted
// empty shape when none exists yet. The default is not written back.
func (s *StateService) GetState(ctx context.Context, userID string) (*store.PlatformState, error) {
	state, err := s.store.GetPlatformState(ctx, &store.FindPlatformState{UserID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get platform state")
	}
	if state == nil {
		return store.NewPlatformState(userID), nil
	}
	return state, nil
}

// GetStateOrDefault is the fail-open variant of GetState.
func (s *StateService) GetStateOrDefault(ctx context.Context, userID string) *store.PlatformState {
	state, err := s.GetState(ctx, userID)
	if err != nil {
		slog.Warn("falling back to empty platform state",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return store.NewPlatformState(userID)
	}
	return state
}

// InitialState returns only one platform's state sub-map, empty when
// the platform has no stored state.
func (s *StateService) InitialState(ctx context.Context, userID string, p platform.ID) (map[string]any, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	state, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub, ok := state.States[p]; ok {
		return sub, nil
	}
	return map[string]any{}, nil
}

// SaveState replaces the addressed platform's state sub-map within the
// user's record, leaving every other platform's sub-map untouched.
func (s *StateService) SaveState(ctx context.Context, userID string, p platform.ID, state map[string]any) (*store.PlatformState, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	record, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]any{}
	}
	record.States[p] = state

	saved, err := s.store.UpsertPlatformState(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save platform state")
	}
	return saved, nil
}

// SaveLastVisited records the last visited path for a platform.
func (s *StateService) SaveLastVisited(ctx context.Context, userID string, p platform.ID, path string) (*store.PlatformState, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	record, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	record.LastVisited[p] = path

	saved, err := s.store.UpsertPlatformState(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save last visited path")
	}
	return saved, nil
}

// Transfer copies state keys from one platform's sub-map into
// another's and persists the record. With no keys named, every key is
// copied. Keys absent from the source are skipped silently; existing
// keys in the destination that are not named are preserved.
func (s *StateService) Transfer(ctx context.Context, userID string, from, to platform.ID, keys []string) (*store.PlatformState, error) {
	if err := validatePlatform(from); err != nil {
		return nil, err
	}
	if err := validatePlatform(to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, errors.New("source and destination platforms must differ")
	}

	record, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}

	source := record.States[from]
	destination := record.States[to]
	if destination == nil {
		destination = map[string]any{}
	}

	if len(keys) == 0 {
		for key, value := range source {
			destination[key] = value
		}
	} else {
		for _, key := range keys {
			if value, ok := source[key]; ok {
				destination[key] = value
			}
		}
	}
	record.States[to] = destination

	saved, err := s.store.UpsertPlatformState(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to transfer platform state")
	}
	return saved, nil
}

// AddRecentItem moves itemID to the front of the platform's
// recent-items list, removing any earlier occurrence, and truncates
// the list to maxItems (default 10).
func (s *StateService) AddRecentItem(ctx context.Context, userID string, p platform.ID, itemID string, maxItems int) (*store.PlatformState, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, errors.New("item id is required")
	}
	if maxItems <= 0 {
		maxItems = defaultMaxRecentItems
	}

	record, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := record.RecentItems[p]
	items := make([]string, 0, len(existing)+1)
	items = append(items, itemID)
	for _, item := range existing {
		if item != itemID {
			items = append(items, item)
		}
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	record.RecentItems[p] = items

	saved, err := s.store.UpsertPlatformState(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to add recent item")
	}
	return saved, nil
}

// SaveProfileInfo updates the lightweight per-platform profile cache.
func (s *StateService) SaveProfileInfo(ctx context.Context, userID string, p platform.ID, info store.ProfileInfo) (*store.PlatformState, error) {
	if err := validatePlatform(p); err != nil {
		return nil, err
	}

	record, err := s.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	record.Profiles[p] = info

	saved, err := s.store.UpsertPlatformState(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save profile info")
	}
	return saved, nil
}

// Clear resets the user's record to the default empty shape.
func (s *StateService) Clear(ctx context.Context, userID string) (*store.PlatformState, error) {
	saved, err := s.store.UpsertPlatformState(ctx, store.NewPlatformState(userID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to clear platform state")
	}
	return saved, nil
}
