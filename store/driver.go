package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	ExecSchema(ctx context.Context, schema string) error

	// InstanceSetting model related methods.
	UpsertInstanceSetting(ctx context.Context, upsert *InstanceSetting) (*InstanceSetting, error)
	GetInstanceSetting(ctx context.Context, find *FindInstanceSetting) (*InstanceSetting, error)

	// UserPreferences model related methods.
	UpsertUserPreferences(ctx context.Context, upsert *UserPreferences) (*UserPreferences, error)
	GetUserPreferences(ctx context.Context, find *FindUserPreferences) (*UserPreferences, error)

	// Notification model related methods.
	CreateNotification(ctx context.Context, create *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error)
	CountNotifications(ctx context.Context, find *FindNotification) (int64, error)
	UpdateNotificationRead(ctx context.Context, update *UpdateNotificationRead) (int64, error)

	// PlatformState model related methods.
	UpsertPlatformState(ctx context.Context, upsert *PlatformState) (*PlatformState, error)
	GetPlatformState(ctx context.Context, find *FindPlatformState) (*PlatformState, error)

	// Achievement model related methods.
	CreateAchievement(ctx context.Context, create *Achievement) (*Achievement, error)
	ListAchievements(ctx context.Context, find *FindAchievement) ([]*Achievement, error)
	CountAchievements(ctx context.Context, find *FindAchievement) (int64, error)

	// Document model related methods.
	UpsertDocument(ctx context.Context, upsert *Document) (*Document, error)
	ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error)
	MatchDocuments(ctx context.Context, opts *MatchDocumentsOptions) ([]*DocumentMatch, error)
	DeleteDocument(ctx context.Context, delete *DeleteDocument) error
}
