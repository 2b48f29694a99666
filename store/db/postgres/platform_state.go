package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/store"
)

func (d *DB) UpsertPlatformState(ctx context.Context, upsert *store.PlatformState) (*store.PlatformState, error) {
	now := time.Now().Unix()

	states, err := marshalJSON(upsert.States)
	if err != nil {
		return nil, err
	}
	lastVisited, err := marshalJSON(upsert.LastVisited)
	if err != nil {
		return nil, err
	}
	recentItems, err := marshalJSON(upsert.RecentItems)
	if err != nil {
		return nil, err
	}
	profiles, err := marshalJSON(upsert.Profiles)
	if err != nil {
		return nil, err
	}

	fields := []string{"user_id", "states", "last_visited", "recent_items", "profiles", "created_ts", "updated_ts"}
	args := []any{upsert.UserID, states, lastVisited, recentItems, profiles, now, now}

	stmt := `INSERT INTO platform_state (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (user_id) DO UPDATE SET
			states = EXCLUDED.states,
			last_visited = EXCLUDED.last_visited,
			recent_items = EXCLUDED.recent_items,
			profiles = EXCLUDED.profiles,
			updated_ts = EXCLUDED.updated_ts
		RETURNING created_ts, updated_ts`

	result := *upsert
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&result.CreatedTs, &result.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert platform_state")
	}

	return &result, nil
}

func (d *DB) GetPlatformState(ctx context.Context, find *store.FindPlatformState) (*store.PlatformState, error) {
	if find.UserID == "" {
		return nil, errors.New("user_id is required")
	}

	query := `SELECT user_id, states, last_visited, recent_items, profiles, created_ts, updated_ts
		FROM platform_state
		WHERE user_id = ` + placeholder(1)

	result := store.NewPlatformState("")
	var states, lastVisited, recentItems, profiles []byte
	err := d.db.QueryRowContext(ctx, query, find.UserID).Scan(
		&result.UserID,
		&states,
		&lastVisited,
		&recentItems,
		&profiles,
		&result.CreatedTs,
		&result.UpdatedTs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found, return nil without error
		}
		return nil, errors.Wrap(err, "failed to get platform_state")
	}

	if err := unmarshalJSON(states, &result.States); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(lastVisited, &result.LastVisited); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(recentItems, &result.RecentItems); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(profiles, &result.Profiles); err != nil {
		return nil, err
	}

	return result, nil
}
