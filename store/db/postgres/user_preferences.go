package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

func (d *DB) UpsertUserPreferences(ctx context.Context, upsert *store.UserPreferences) (*store.UserPreferences, error) {
	now := time.Now().Unix()

	accessibility, err := marshalJSON(upsert.Accessibility)
	if err != nil {
		return nil, err
	}
	layout, err := marshalJSON(upsert.DashboardLayout)
	if err != nil {
		return nil, err
	}
	features, err := marshalJSON(upsert.Features)
	if err != nil {
		return nil, err
	}

	fields := []string{"user_id", "platform", "theme", "notifications_enabled", "email_digest", "locale", "timezone", "accessibility", "dashboard_layout", "features", "created_ts", "updated_ts"}
	args := []any{upsert.UserID, string(upsert.Platform), string(upsert.Theme), upsert.NotificationsEnabled, string(upsert.EmailDigest), upsert.Locale, upsert.Timezone, accessibility, layout, features, now, now}

	stmt := `INSERT INTO user_preferences (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			theme = EXCLUDED.theme,
			notifications_enabled = EXCLUDED.notifications_enabled,
			email_digest = EXCLUDED.email_digest,
			locale = EXCLUDED.locale,
			timezone = EXCLUDED.timezone,
			accessibility = EXCLUDED.accessibility,
			dashboard_layout = EXCLUDED.dashboard_layout,
			features = EXCLUDED.features,
			updated_ts = EXCLUDED.updated_ts
		RETURNING created_ts, updated_ts`

	result := *upsert
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&result.CreatedTs, &result.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert user_preferences")
	}

	return &result, nil
}

func (d *DB) GetUserPreferences(ctx context.Context, find *store.FindUserPreferences) (*store.UserPreferences, error) {
	if find.UserID == nil || find.Platform == nil {
		return nil, errors.New("user_id and platform are required")
	}

	query := `SELECT user_id, platform, theme, notifications_enabled, email_digest, locale, timezone, accessibility, dashboard_layout, features, created_ts, updated_ts
		FROM user_preferences
		WHERE user_id = ` + placeholder(1) + ` AND platform = ` + placeholder(2)

	result := &store.UserPreferences{}
	var thm, pfm, digest string
	var accessibility, layout, features []byte
	err := d.db.QueryRowContext(ctx, query, *find.UserID, string(*find.Platform)).Scan(
		&result.UserID,
		&pfm,
		&thm,
		&result.NotificationsEnabled,
		&digest,
		&result.Locale,
		&result.Timezone,
		&accessibility,
		&layout,
		&features,
		&result.CreatedTs,
		&result.UpdatedTs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found, return nil without error
		}
		return nil, errors.Wrap(err, "failed to get user_preferences")
	}

	result.Platform = platform.ID(pfm)
	result.Theme = store.ThemeMode(thm)
	result.EmailDigest = store.DigestFrequency(digest)
	if err := unmarshalJSON(accessibility, &result.Accessibility); err != nil {
		return nil, err
	}
	result.DashboardLayout = map[string]any{}
	if err := unmarshalJSON(layout, &result.DashboardLayout); err != nil {
		return nil, err
	}
	result.Features = map[string]bool{}
	if err := unmarshalJSON(features, &result.Features); err != nil {
		return nil, err
	}

	return result, nil
}
