package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/store"
)

// SQLite is the development/test driver. Vector search is not
// supported; use PostgreSQL for production.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database instance. If the file does not exist, it will
// be created automatically.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Ensure a DSN is set before attempting to connect to the database.
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Single connection: SQLite does not benefit from concurrent
	// writers, and one connection avoids SQLITE_BUSY under test load.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	sqliteDB.SetMaxOpenConns(1)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'user_preferences')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

func (d *DB) ExecSchema(ctx context.Context, schema string) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to execute schema")
	}
	return nil
}

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(_ int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// marshalJSON encodes v for a TEXT column, mapping nil values to "{}".
func marshalJSON(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal json value")
	}
	s := string(buf)
	if s == "null" {
		s = "{}"
	}
	return s, nil
}

func unmarshalJSON(raw string, out any) error {
	if raw == "" {
		return nil
	}
	return errors.Wrapf(json.Unmarshal([]byte(raw), out), "failed to unmarshal json value %q", fmt.Sprintf("%.32s", raw))
}
