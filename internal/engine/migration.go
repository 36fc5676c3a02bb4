package engine

import "fmt"

// Migrate copies every profile and key from src into dst.
// This works for:
// - Embedded -> Remote (moving a local data dir into a daemon)
// - Remote -> Embedded (taking an offline copy)
// Keys already present in dst are overwritten.
func Migrate(src, dst Store) error {
	profiles, err := src.GetProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	for _, pID := range profiles {
		data, err := src.GetProfile(pID)
		if err != nil {
			return fmt.Errorf("failed to dump profile %s: %w", pID, err)
		}

		for k, v := range data {
			if err := dst.Set(pID, k, v); err != nil {
				return fmt.Errorf("failed to set key %s in destination: %w", k, err)
			}
		}
	}

	return nil
}
