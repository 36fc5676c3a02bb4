package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Persistence handles the disk I/O for the MemStore.
// Each profile lives in its own <profile>.json file.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Persistence{DataDir: dir}, nil
}

// SaveProfile writes a single profile's data to a JSON file atomically.
func (p *Persistence) SaveProfile(profileID string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := filepath.Join(p.DataDir, profileID+".json")
	tempPath := filePath + ".tmp"

	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, bytes, 0o644); err != nil {
		return err
	}

	// The rename leaves either the old file or the new one on disk, never a torn write.
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all profile data found in the data directory.
// Unreadable or corrupt profile files are skipped with a warning.
func (p *Persistence) LoadAll() (map[string]map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[string]string)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		profileID := strings.TrimSuffix(file.Name(), ".json")

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			slog.Warn("could not read profile file", "file", file.Name(), "error", err)
			continue
		}

		var profile map[string]string
		if err := json.Unmarshal(content, &profile); err != nil {
			slog.Warn("could not unmarshal profile file", "file", file.Name(), "error", err)
			continue
		}
		allData[profileID] = profile
	}
	return allData, nil
}
