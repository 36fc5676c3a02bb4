package engine

import (
	"log/slog"
	"maps"
	"sync"
)

// MemStore is the thread-safe embedded profile store.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [profileID][key]value
	data      map[string]map[string]string
	persister *Persistence
	wg        sync.WaitGroup
	saveMu    sync.Mutex // Orders background writes
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and an optional persister.
func NewMemStore(initialData map[string]map[string]string, p *Persistence) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]string)
	}
	return &MemStore{
		data:      initialData,
		persister: p,
	}
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

func (m *MemStore) Get(profileID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.data[profileID]
	if !ok {
		return "", ErrProfileNotFound
	}

	val, ok := profile[key]
	if !ok {
		return "", ErrKeyNotFound
	}

	return val, nil
}

func (m *MemStore) Set(profileID, key, val string) error {
	if !ValidProfileID(profileID) {
		return ErrInvalidProfile
	}
	if !ValidKey(key) {
		return ErrInvalidKey
	}

	m.mu.Lock()
	if m.data[profileID] == nil {
		m.data[profileID] = make(map[string]string)
	}
	m.data[profileID][key] = val
	m.mu.Unlock()

	m.persist(profileID)
	return nil
}

func (m *MemStore) Delete(profileID, key string) error {
	m.mu.Lock()
	profile, ok := m.data[profileID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(profile, key)
	m.mu.Unlock()

	m.persist(profileID)
	return nil
}

// persist writes a profile in the background. Each write takes the profile's
// state at the time it runs, so a late write never restores older data.
func (m *MemStore) persist(profileID string) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.saveMu.Lock()
		defer m.saveMu.Unlock()

		m.mu.RLock()
		snapshot := maps.Clone(m.data[profileID])
		m.mu.RUnlock()

		if err := m.persister.SaveProfile(profileID, snapshot); err != nil {
			slog.Warn("persist profile", "profile", profileID, "error", err)
		}
	}()
}

func (m *MemStore) GetProfiles() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []string
	for id := range m.data {
		list = append(list, id)
	}
	return list, nil
}

func (m *MemStore) GetProfile(profileID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.data[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	// Return a copy to prevent external mutation of the internal map
	return maps.Clone(profile), nil
}

// Profile returns a Scope pinned to profileID.
func (m *MemStore) Profile(profileID string) Scope {
	return BindProfile(m, profileID)
}
