// Package engine defines the profile store: the persisted key-value space
// that stands in for a browser's local storage.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is the parent of every lookup miss in the store.
	ErrNotFound = errors.New("not found")
	// ErrProfileNotFound is returned when a requested profile does not exist.
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	// ErrKeyNotFound is returned when a requested key does not exist within a profile.
	ErrKeyNotFound = fmt.Errorf("key %w", ErrNotFound)
	// ErrInvalidProfile is returned for profile IDs that cannot name a profile file.
	ErrInvalidProfile = errors.New("invalid profile id")
	// ErrInvalidKey is returned for empty keys or keys containing whitespace.
	ErrInvalidKey = errors.New("invalid key")
)

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "default"

// Store is the primary interface for interacting with the profile store.
// Both the embedded engine and the remote network client implement this contract.
type Store interface {
	// Get retrieves the value stored under key in a profile.
	Get(profileID, key string) (string, error)
	// Set stores a value under key in a profile, creating the profile if needed.
	Set(profileID, key, val string) error
	// Delete removes a key from a profile.
	Delete(profileID, key string) error

	// GetProfiles returns the IDs of every profile in the store.
	GetProfiles() ([]string, error)
	// GetProfile returns all keys and values of a profile.
	// Useful for migrations, exports and inspection.
	GetProfile(profileID string) (map[string]string, error)

	// Profile returns a Scope pinned to one profile.
	Profile(profileID string) Scope
}

// Scope is a key-value view of a single profile. It is what the identity,
// variant and transport components are handed.
type Scope interface {
	Get(key string) (string, error)
	Set(key, val string) error
	Delete(key string) error
}

// ValidProfileID reports whether id can be used as a profile name.
// IDs travel as single tokens on the wire and as file names on disk.
func ValidProfileID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\ \t\r\n")
}

// ValidKey reports whether key can be stored.
func ValidKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, " \t\r\n")
}

type kv interface {
	Get(profileID, key string) (string, error)
	Set(profileID, key, val string) error
	Delete(profileID, key string) error
}

// BindProfile pins a profile-keyed store to one profile.
func BindProfile(s kv, profileID string) Scope {
	return &profileScope{store: s, profileID: profileID}
}

type profileScope struct {
	store     kv
	profileID string
}

func (p *profileScope) Get(key string) (string, error) {
	return p.store.Get(p.profileID, key)
}

func (p *profileScope) Set(key, val string) error {
	return p.store.Set(p.profileID, key, val)
}

func (p *profileScope) Delete(key string) error {
	return p.store.Delete(p.profileID, key)
}
