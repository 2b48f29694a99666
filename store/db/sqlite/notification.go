package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

// Target platforms are stored as a JSON array in a TEXT column;
// intersection filtering happens in Go after the user-scoped query.

func (d *DB) CreateNotification(ctx context.Context, create *store.Notification) (*store.Notification, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	targets, err := marshalJSON(create.TargetPlatforms)
	if err != nil {
		return nil, err
	}

	fields := []string{"uid", "user_id", "source_platform", "target_platforms", "title", "content", "action_url", "priority", "read", "created_ts"}
	args := []any{create.UID, create.UserID, string(create.SourcePlatform), targets, create.Title, create.Content, create.ActionURL, string(create.Priority), create.Read, create.CreatedTs}

	stmt := `INSERT INTO notification (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create notification")
	}

	return create, nil
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	list, err := d.listNotifications(ctx, find)
	if err != nil {
		return nil, err
	}
	return paginate(list, find.Limit, find.Offset), nil
}

func (d *DB) CountNotifications(ctx context.Context, find *store.FindNotification) (int64, error) {
	list, err := d.listNotifications(ctx, find)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// listNotifications applies every filter except limit/offset, which
// must run after the in-Go target-set intersection.
func (d *DB) listNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Read != nil {
		where, args = append(where, "read = "+placeholder(len(args)+1)), append(args, *find.Read)
	}

	query := `SELECT id, uid, user_id, source_platform, target_platforms, title, content, action_url, priority, read, created_ts
		FROM notification
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	list := make([]*store.Notification, 0)
	for rows.Next() {
		n := &store.Notification{}
		var source, priority, targets string
		if err := rows.Scan(&n.ID, &n.UID, &n.UserID, &source, &targets, &n.Title, &n.Content, &n.ActionURL, &priority, &n.Read, &n.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		n.SourcePlatform = platform.ID(source)
		n.Priority = store.NotificationPriority(priority)
		if err := unmarshalJSON(targets, &n.TargetPlatforms); err != nil {
			return nil, err
		}
		if len(find.Platforms) > 0 && !intersects(n.TargetPlatforms, find.Platforms) {
			continue
		}
		list = append(list, n)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate notifications")
	}

	return list, nil
}

func (d *DB) UpdateNotificationRead(ctx context.Context, update *store.UpdateNotificationRead) (int64, error) {
	if len(update.UIDs) == 0 {
		return 0, nil
	}

	args := []any{update.Read, update.UserID}
	marks := make([]string, len(update.UIDs))
	for i, uid := range update.UIDs {
		marks[i] = placeholder(len(args) + 1)
		args = append(args, uid)
	}

	stmt := `UPDATE notification SET read = ` + placeholder(1) + `
		WHERE user_id = ` + placeholder(2) + ` AND uid IN (` + strings.Join(marks, ", ") + `)`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to update notification read state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

func intersects(a, b []platform.ID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func paginate(list []*store.Notification, limit, offset *int) []*store.Notification {
	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start >= len(list) {
		return []*store.Notification{}
	}
	end := len(list)
	if limit != nil && *limit > 0 && start+*limit < end {
		end = start + *limit
	}
	return list[start:end]
}
