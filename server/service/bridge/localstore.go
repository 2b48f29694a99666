package bridge

import (
	"sync"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// LocalStore is the device-scoped key-value store behind the
// navigation service's last-location bookkeeping. Unlike the shared
// backend store it is never synchronized across devices.
type LocalStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryLocalStore is the in-process LocalStore used by server-side
// sessions and tests.
type MemoryLocalStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryLocalStore creates an empty local store.
func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{values: make(map[string]string)}
}

func (s *MemoryLocalStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryLocalStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryLocalStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func lastLocationKey(p platform.ID) string {
	return "nav:last-location:" + string(p)
}
