package sdk

import "github.com/celerix-dev/celerix-abtest/internal/engine"

var (
	// ErrNotFound matches every lookup miss, local or remote.
	ErrNotFound = engine.ErrNotFound
	// ErrProfileNotFound is returned when a requested profile does not exist.
	ErrProfileNotFound = engine.ErrProfileNotFound
	// ErrKeyNotFound is returned when a requested key does not exist within a profile.
	ErrKeyNotFound = engine.ErrKeyNotFound
)

// --- Functional Interfaces (Interface Segregation) ---

// KVReader defines the basic read operations for the store.
type KVReader interface {
	Get(profileID, key string) (string, error)
}

// KVWriter defines the basic write and delete operations for the store.
type KVWriter interface {
	Set(profileID, key, val string) error
	Delete(profileID, key string) error
}

// ProfileEnumeration allows discovering profiles.
type ProfileEnumeration interface {
	GetProfiles() ([]string, error)
}

// BatchExporter allows retrieving a whole profile at once.
type BatchExporter interface {
	GetProfile(profileID string) (map[string]string, error)
}

// --- Composite Interfaces ---

// Store is the full profile store contract. The embedded engine and the
// remote Client both satisfy it.
type Store = engine.Store

// Scope is a key-value view pinned to one profile.
type Scope = engine.Scope

var (
	_ Store = (*Client)(nil)
	_ Store = (*engine.MemStore)(nil)
)
