package store

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// Schema version is stored in instance_setting under schemaVersionSettingName.
//
// Migration flow:
//  1. Fresh database: apply migration/{driver}/LATEST.sql and record the
//     current version.
//  2. Existing database: apply every migration/{driver}/{version}/*.sql
//     whose version is greater than the recorded one and not greater
//     than the server version, in semver order, then re-record.
//
// Migration files live under migration/{driver}/{version}/NN__description.sql
// and are applied in lexical order within a version.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName holds the full schema for new installations.
	LatestSchemaFileName = "LATEST.sql"

	schemaVersionSettingName = "schema_version"

	// defaultSchemaVersion is assumed for databases without a recorded
	// version.
	defaultSchemaVersion = "0.0.0"
)

// Migrate brings the database schema up to the server version.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check initialization status")
	}

	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := s.setSchemaVersion(ctx, s.serverVersion()); err != nil {
			return err
		}
		slog.Info("database initialized", slog.String("version", s.serverVersion()))
		return nil
	}

	current, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}
	target := s.serverVersion()
	if semver.Compare(canonical(current), canonical(target)) >= 0 {
		return nil
	}

	if err := s.applyIncrementalMigrations(ctx, current, target); err != nil {
		return err
	}
	if err := s.setSchemaVersion(ctx, target); err != nil {
		return err
	}
	slog.Info("database migrated", slog.String("from", current), slog.String("to", target))
	return nil
}

func (s *Store) serverVersion() string {
	if s.profile.Version != "" {
		return s.profile.Version
	}
	return defaultSchemaVersion
}

// canonical prefixes a bare version with "v" for x/mod/semver, which
// rejects unprefixed versions.
func canonical(version string) string {
	if version == "" {
		version = defaultSchemaVersion
	}
	if version[0] != 'v' {
		version = "v" + version
	}
	return version
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	path := filepath.Join("migration", s.profile.Driver, LatestSchemaFileName)
	buf, err := migrationFS.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %q", path)
	}
	if err := s.driver.ExecSchema(ctx, string(buf)); err != nil {
		return errors.Wrapf(err, "failed to execute latest schema for %s", s.profile.Driver)
	}
	return nil
}

func (s *Store) applyIncrementalMigrations(ctx context.Context, current, target string) error {
	root := filepath.Join("migration", s.profile.Driver)
	entries, err := migrationFS.ReadDir(root)
	if err != nil {
		return errors.Wrapf(err, "failed to read migration dir %q", root)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v := entry.Name()
		if semver.Compare(canonical(v), canonical(current)) > 0 &&
			semver.Compare(canonical(v), canonical(target)) <= 0 {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare(canonical(versions[i]), canonical(versions[j])) < 0
	})

	for _, v := range versions {
		files, err := fs.Glob(migrationFS, filepath.Join(root, v, "*.sql"))
		if err != nil {
			return errors.Wrapf(err, "failed to list migrations for version %s", v)
		}
		sort.Strings(files)
		for _, file := range files {
			buf, err := migrationFS.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "failed to read migration file %q", file)
			}
			if err := s.driver.ExecSchema(ctx, string(buf)); err != nil {
				return errors.Wrapf(err, "failed to apply migration %q", file)
			}
			slog.Info("applied migration", slog.String("file", file))
		}
	}
	return nil
}

func (s *Store) currentSchemaVersion(ctx context.Context) (string, error) {
	setting, err := s.driver.GetInstanceSetting(ctx, &FindInstanceSetting{Name: schemaVersionSettingName})
	if err != nil {
		return "", errors.Wrap(err, "failed to get schema version setting")
	}
	if setting == nil || setting.Value == "" {
		return defaultSchemaVersion, nil
	}
	return setting.Value, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, version string) error {
	_, err := s.driver.UpsertInstanceSetting(ctx, &InstanceSetting{
		Name:  schemaVersionSettingName,
		Value: version,
	})
	return errors.Wrap(err, "failed to record schema version")
}
