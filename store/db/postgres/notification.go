package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store"
)

func platformStrings(ids []platform.ID) []string {
	list := make([]string, len(ids))
	for i, id := range ids {
		list[i] = string(id)
	}
	return list
}

func platformIDs(list []string) []platform.ID {
	ids := make([]platform.ID, len(list))
	for i, s := range list {
		ids[i] = platform.ID(s)
	}
	return ids
}

func (d *DB) CreateNotification(ctx context.Context, create *store.Notification) (*store.Notification, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	fields := []string{"uid", "user_id", "source_platform", "target_platforms", "title", "content", "action_url", "priority", "read", "created_ts"}
	args := []any{create.UID, create.UserID, string(create.SourcePlatform), pq.Array(platformStrings(create.TargetPlatforms)), create.Title, create.Content, create.ActionURL, string(create.Priority), create.Read, create.CreatedTs}

	stmt := `INSERT INTO notification (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create notification")
	}

	return create, nil
}

func notificationWhere(find *store.FindNotification) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if len(find.Platforms) > 0 {
		// Overlap with the stored target set.
		where, args = append(where, "target_platforms && "+placeholder(len(args)+1)), append(args, pq.Array(platformStrings(find.Platforms)))
	}
	if find.Read != nil {
		where, args = append(where, "read = "+placeholder(len(args)+1)), append(args, *find.Read)
	}

	return where, args
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	where, args := notificationWhere(find)

	query := `SELECT id, uid, user_id, source_platform, target_platforms, title, content, action_url, priority, read, created_ts
		FROM notification
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
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
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	list := make([]*store.Notification, 0)
	for rows.Next() {
		n := &store.Notification{}
		var source, priority string
		var targets pq.StringArray
		if err := rows.Scan(&n.ID, &n.UID, &n.UserID, &source, &targets, &n.Title, &n.Content, &n.ActionURL, &priority, &n.Read, &n.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		n.SourcePlatform = platform.ID(source)
		n.TargetPlatforms = platformIDs(targets)
		n.Priority = store.NotificationPriority(priority)
		list = append(list, n)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate notifications")
	}

	return list, nil
}

func (d *DB) CountNotifications(ctx context.Context, find *store.FindNotification) (int64, error) {
	where, args := notificationWhere(find)

	query := `SELECT COUNT(*) FROM notification WHERE ` + strings.Join(where, " AND ")
	var count int64
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count notifications")
	}
	return count, nil
}

func (d *DB) UpdateNotificationRead(ctx context.Context, update *store.UpdateNotificationRead) (int64, error) {
	if len(update.UIDs) == 0 {
		return 0, nil
	}

	// Scoping by user_id is the authorization boundary: ids belonging
	// to other users are silently skipped.
	stmt := `UPDATE notification SET read = ` + placeholder(1) + `
		WHERE user_id = ` + placeholder(2) + ` AND uid = ANY(` + placeholder(3) + `)`
	result, err := d.db.ExecContext(ctx, stmt, update.Read, update.UserID, pq.Array(update.UIDs))
	if err != nil {
		return 0, errors.Wrap(err, "failed to update notification read state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}
