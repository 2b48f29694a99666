package bridge

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/internal/profile"
	"github.com/neothink-dao/platform-bridge/store"
)

// fakeDriver is an in-memory store.Driver for service tests. When
// failing is set, every operation returns a transport error, which is
// how the fail-open paths are exercised.
type fakeDriver struct {
	mu      sync.Mutex
	failing bool

	preferences   map[string]*store.UserPreferences // keyed userID + "/" + platform
	notifications []*store.Notification
	states        map[string]*store.PlatformState
	achievements  []*store.Achievement
	documents     []*store.Document
	settings      map[string]*store.InstanceSetting
	nextID        int32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		preferences: map[string]*store.UserPreferences{},
		states:      map[string]*store.PlatformState{},
		settings:    map[string]*store.InstanceSetting{},
	}
}

func newTestStore(driver *fakeDriver) *store.Store {
	return store.New(driver, &profile.Profile{Mode: "demo", Driver: "sqlite"})
}

var errTransport = errors.New("store unavailable")

func prefsKey(userID string, p platform.ID) string {
	return userID + "/" + string(p)
}

func (d *fakeDriver) GetDB() *sql.DB { return nil }
func (d *fakeDriver) Close() error   { return nil }

func (d *fakeDriver) IsInitialized(context.Context) (bool, error) { return true, nil }
func (d *fakeDriver) ExecSchema(context.Context, string) error { return nil }

func (d *fakeDriver) UpsertInstanceSetting(_ context.Context, upsert *store.InstanceSetting) (*store.InstanceSetting, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	d.settings[upsert.Name] = upsert
	return upsert, nil
}

func (d *fakeDriver) GetInstanceSetting(_ context.Context, find *store.FindInstanceSetting) (*store.InstanceSetting, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	return d.settings[find.Name], nil
}

func (d *fakeDriver) UpsertUserPreferences(_ context.Context, upsert *store.UserPreferences) (*store.UserPreferences, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	now := time.Now().Unix()
	saved := upsert.Clone()
	if existing, ok := d.preferences[prefsKey(upsert.UserID, upsert.Platform)]; ok {
		saved.CreatedTs = existing.CreatedTs
	} else {
		saved.CreatedTs = now
	}
	saved.UpdatedTs = now
	d.preferences[prefsKey(upsert.UserID, upsert.Platform)] = saved
	return saved.Clone(), nil
}

func (d *fakeDriver) GetUserPreferences(_ context.Context, find *store.FindUserPreferences) (*store.UserPreferences, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	if find.UserID == nil || find.Platform == nil {
		return nil, errors.New("user id and platform are required")
	}
	prefs, ok := d.preferences[prefsKey(*find.UserID, *find.Platform)]
	if !ok {
		return nil, nil
	}
	return prefs.Clone(), nil
}

func (d *fakeDriver) CreateNotification(_ context.Context, create *store.Notification) (*store.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	d.nextID++
	saved := *create
	saved.ID = d.nextID
	saved.CreatedTs = time.Now().Unix()
	d.notifications = append(d.notifications, &saved)
	copied := saved
	return &copied, nil
}

func (d *fakeDriver) listNotificationsLocked(find *store.FindNotification) []*store.Notification {
	matched := []*store.Notification{}
	for _, n := range d.notifications {
		if find.UserID != nil && n.UserID != *find.UserID {
			continue
		}
		if find.UID != nil && n.UID != *find.UID {
			continue
		}
		if find.Read != nil && n.Read != *find.Read {
			continue
		}
		if len(find.Platforms) > 0 && !intersects(n.TargetPlatforms, find.Platforms) {
			continue
		}
		copied := *n
		matched = append(matched, &copied)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedTs != matched[j].CreatedTs {
			return matched[i].CreatedTs > matched[j].CreatedTs
		}
		return matched[i].ID > matched[j].ID
	})
	return matched
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

func (d *fakeDriver) ListNotifications(_ context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	matched := d.listNotificationsLocked(find)
	if find.Offset != nil {
		if *find.Offset >= len(matched) {
			return []*store.Notification{}, nil
		}
		matched = matched[*find.Offset:]
	}
	if find.Limit != nil && *find.Limit < len(matched) {
		matched = matched[:*find.Limit]
	}
	return matched, nil
}

func (d *fakeDriver) CountNotifications(_ context.Context, find *store.FindNotification) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return 0, errTransport
	}
	return int64(len(d.listNotificationsLocked(find))), nil
}

func (d *fakeDriver) UpdateNotificationRead(_ context.Context, update *store.UpdateNotificationRead) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return 0, errTransport
	}
	uids := map[string]bool{}
	for _, uid := range update.UIDs {
		uids[uid] = true
	}
	var updated int64
	for _, n := range d.notifications {
		if n.UserID == update.UserID && uids[n.UID] && n.Read != update.Read {
			n.Read = update.Read
			updated++
		}
	}
	return updated, nil
}

func (d *fakeDriver) UpsertPlatformState(_ context.Context, upsert *store.PlatformState) (*store.PlatformState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	now := time.Now().Unix()
	saved := upsert.Clone()
	if existing, ok := d.states[upsert.UserID]; ok {
		saved.CreatedTs = existing.CreatedTs
	} else {
		saved.CreatedTs = now
	}
	saved.UpdatedTs = now
	d.states[upsert.UserID] = saved
	return saved.Clone(), nil
}

func (d *fakeDriver) GetPlatformState(_ context.Context, find *store.FindPlatformState) (*store.PlatformState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	state, ok := d.states[find.UserID]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (d *fakeDriver) CreateAchievement(_ context.Context, create *store.Achievement) (*store.Achievement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	d.nextID++
	saved := *create
	saved.ID = d.nextID
	d.achievements = append(d.achievements, &saved)
	copied := saved
	return &copied, nil
}

func (d *fakeDriver) ListAchievements(_ context.Context, find *store.FindAchievement) ([]*store.Achievement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	matched := []*store.Achievement{}
	for _, a := range d.achievements {
		if find.UserID != nil && a.UserID != *find.UserID {
			continue
		}
		if find.Platform != nil && a.Platform != *find.Platform {
			continue
		}
		copied := *a
		matched = append(matched, &copied)
	}
	return matched, nil
}

func (d *fakeDriver) CountAchievements(_ context.Context, find *store.FindAchievement) (int64, error) {
	list, err := d.ListAchievements(context.Background(), find)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (d *fakeDriver) UpsertDocument(_ context.Context, upsert *store.Document) (*store.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	d.nextID++
	saved := *upsert
	saved.ID = d.nextID
	d.documents = append(d.documents, &saved)
	copied := saved
	return &copied, nil
}

func (d *fakeDriver) ListDocuments(_ context.Context, find *store.FindDocument) ([]*store.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errTransport
	}
	matched := []*store.Document{}
	for _, doc := range d.documents {
		if find.Platform != nil && doc.Platform != *find.Platform {
			continue
		}
		copied := *doc
		matched = append(matched, &copied)
	}
	return matched, nil
}

func (d *fakeDriver) MatchDocuments(context.Context, *store.MatchDocumentsOptions) ([]*store.DocumentMatch, error) {
	return nil, errors.New("document similarity search is not supported by the fake driver")
}

func (d *fakeDriver) DeleteDocument(_ context.Context, del *store.DeleteDocument) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return errTransport
	}
	kept := d.documents[:0]
	for _, doc := range d.documents {
		if doc.ID != del.ID {
			kept = append(kept, doc)
		}
	}
	d.documents = kept
	return nil
}
