package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/store"
	"github.com/neothink-dao/platform-bridge/store/db/sqlite"
)

func openMigratorTestStore(t *testing.T, dsn, version string) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:    "demo",
		Driver:  "sqlite",
		DSN:     dsn,
		Version: version,
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	return store.New(driver, p)
}

func schemaVersion(t *testing.T, ctx context.Context, s *store.Store) string {
	t.Helper()
	setting, err := s.GetInstanceSetting(ctx, &store.FindInstanceSetting{Name: "schema_version"})
	require.NoError(t, err)
	require.NotNil(t, setting)
	return setting.Value
}

func notificationReadIndexExists(t *testing.T, ctx context.Context, s *store.Store) bool {
	t.Helper()
	var count int
	err := s.GetDriver().GetDB().QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND name = 'idx_notification_user_read'").Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestMigrateFreshInstallRecordsServerVersion(t *testing.T) {
	ctx := context.Background()
	s := openMigratorTestStore(t, t.TempDir()+"/fresh.db", "0.2.0")
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))
	require.Equal(t, "0.2.0", schemaVersion(t, ctx, s))
	require.True(t, notificationReadIndexExists(t, ctx, s))
}

func TestMigrateAppliesIncrementalVersions(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/upgrade.db"

	// Install at a version older than every incremental dir, then
	// remove the index the 0.1 migration introduces so its re-creation
	// proves the incremental actually ran.
	old := openMigratorTestStore(t, dsn, "0.0.1")
	require.NoError(t, old.Migrate(ctx))
	require.Equal(t, "0.0.1", schemaVersion(t, ctx, old))
	_, err := old.GetDriver().GetDB().ExecContext(ctx, "DROP INDEX idx_notification_user_read")
	require.NoError(t, err)
	require.NoError(t, old.Close())

	current := openMigratorTestStore(t, dsn, "0.2.0")
	defer current.Close()

	require.NoError(t, current.Migrate(ctx))
	require.Equal(t, "0.2.0", schemaVersion(t, ctx, current))
	require.True(t, notificationReadIndexExists(t, ctx, current))
}

func TestMigrateIsIdempotentAtCurrentVersion(t *testing.T) {
	ctx := context.Background()
	s := openMigratorTestStore(t, t.TempDir()+"/idempotent.db", "0.2.0")
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
	require.Equal(t, "0.2.0", schemaVersion(t, ctx, s))
}

func TestMigrateNeverDowngrades(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/downgrade.db"

	newer := openMigratorTestStore(t, dsn, "0.2.0")
	require.NoError(t, newer.Migrate(ctx))
	require.NoError(t, newer.Close())

	// An older binary against a newer schema leaves the version alone.
	older := openMigratorTestStore(t, dsn, "0.1.0")
	defer older.Close()

	require.NoError(t, older.Migrate(ctx))
	require.Equal(t, "0.2.0", schemaVersion(t, ctx, older))
}
