package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

func (d *DB) CreateAchievement(ctx context.Context, create *store.Achievement) (*store.Achievement, error) {
	if create.EarnedTs == 0 {
		create.EarnedTs = time.Now().Unix()
	}

	fields := []string{"uid", "user_id", "platform", "name", "description", "badge_icon", "xp_awarded", "earned_ts"}
	args := []any{create.UID, create.UserID, string(create.Platform), create.Name, create.Description, create.BadgeIcon, create.XPAwarded, create.EarnedTs}

	stmt := `INSERT INTO achievement (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create achievement")
	}

	return create, nil
}

func achievementWhere(find *store.FindAchievement) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Platform != nil {
		where, args = append(where, "platform = "+placeholder(len(args)+1)), append(args, string(*find.Platform))
	}

	return where, args
}

func achievementOrderClause(find *store.FindAchievement) string {
	orderBy := "earned_ts"
	if find.OrderBy != "" && store.AchievementOrderColumns[find.OrderBy] {
		orderBy = find.OrderBy
	}
	order := "DESC"
	if strings.EqualFold(find.Order, "asc") {
		order = "ASC"
	}
	return " ORDER BY " + orderBy + " " + order + ", id " + order
}

func (d *DB) ListAchievements(ctx context.Context, find *store.FindAchievement) ([]*store.Achievement, error) {
	where, args := achievementWhere(find)

	query := `SELECT id, uid, user_id, platform, name, description, badge_icon, xp_awarded, earned_ts
		FROM achievement
		WHERE ` + strings.Join(where, " AND ") + achievementOrderClause(find)
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list achievements")
	}
	defer rows.Close()

	list := make([]*store.Achievement, 0)
	for rows.Next() {
		a := &store.Achievement{}
		var pfm string
		if err := rows.Scan(&a.ID, &a.UID, &a.UserID, &pfm, &a.Name, &a.Description, &a.BadgeIcon, &a.XPAwarded, &a.EarnedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan achievement")
		}
		a.Platform = platform.ID(pfm)
		list = append(list, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate achievements")
	}

	return list, nil
}

func (d *DB) CountAchievements(ctx context.Context, find *store.FindAchievement) (int64, error) {
	where, args := achievementWhere(find)

	query := `SELECT COUNT(*) FROM achievement WHERE ` + strings.Join(where, " AND ")
	var count int64
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count achievements")
	}
	return count, nil
}
