package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFile = "version-check.json"
	cacheTTL  = 6 * time.Hour
)

// CacheEntry is the last successful check.
type CacheEntry struct {
	LatestVersion  string    `json:"latest_version"`
	CurrentVersion string    `json:"current_version"`
	UpdateURL      string    `json:"update_url,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
	HasUpdate      bool      `json:"has_update"`
}

// IsCacheValid reports whether entry is fresh and was made for currentVersion.
func IsCacheValid(entry *CacheEntry, currentVersion string) bool {
	if entry == nil || entry.CurrentVersion != currentVersion {
		return false
	}
	return time.Since(entry.CheckedAt) < cacheTTL
}

// LoadCache reads the cache entry from dir.
func LoadCache(dir string) (*CacheEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse version cache: %w", err)
	}
	return &entry, nil
}

// SaveCache writes entry to dir, creating it if needed.
func SaveCache(dir string, entry *CacheEntry) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0644)
}
