package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/store"
)

func (d *DB) UpsertInstanceSetting(ctx context.Context, upsert *store.InstanceSetting) (*store.InstanceSetting, error) {
	stmt := `INSERT INTO instance_setting (name, value)
		VALUES (` + placeholders(2) + `)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`

	if _, err := d.db.ExecContext(ctx, stmt, upsert.Name, upsert.Value); err != nil {
		return nil, errors.Wrap(err, "failed to upsert instance_setting")
	}
	return upsert, nil
}

func (d *DB) GetInstanceSetting(ctx context.Context, find *store.FindInstanceSetting) (*store.InstanceSetting, error) {
	query := `SELECT name, value FROM instance_setting WHERE name = ` + placeholder(1)

	result := &store.InstanceSetting{}
	if err := d.db.QueryRowContext(ctx, query, find.Name).Scan(&result.Name, &result.Value); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get instance_setting")
	}
	return result, nil
}
