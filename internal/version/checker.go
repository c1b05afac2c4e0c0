package version

import (
	"context"
	"time"
)

// CheckCached answers from the cache when it is valid, otherwise checks the
// release endpoint and caches a successful answer.
func (c *Checker) CheckCached(ctx context.Context, currentVersion string) CheckResult {
	if c.CacheDir != "" {
		if cached, err := LoadCache(c.CacheDir); err == nil && IsCacheValid(cached, currentVersion) {
			return CheckResult{
				CurrentVersion: currentVersion,
				LatestVersion:  cached.LatestVersion,
				UpdateURL:      cached.UpdateURL,
				HasUpdate:      cached.HasUpdate,
				Cached:         true,
			}
		}
	}

	result := c.Check(ctx, currentVersion)

	// network errors are not cached
	if result.Error == nil && result.LatestVersion != "" && c.CacheDir != "" {
		_ = SaveCache(c.CacheDir, &CacheEntry{
			LatestVersion:  result.LatestVersion,
			CurrentVersion: currentVersion,
			UpdateURL:      result.UpdateURL,
			CheckedAt:      time.Now(),
			HasUpdate:      result.HasUpdate,
		})
	}
	return result
}
