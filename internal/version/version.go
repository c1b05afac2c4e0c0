// Package version checks GitHub releases for a newer optsync and compares
// semantic versions.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DefaultReleaseURL is the GitHub API endpoint for the latest release.
const DefaultReleaseURL = "https://api.github.com/repos/marcus/optsync/releases/latest"

// Release represents a GitHub release response.
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// CheckResult holds the result of a version check.
type CheckResult struct {
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version,omitempty"`
	UpdateURL      string `json:"update_url,omitempty"`
	HasUpdate      bool   `json:"has_update"`
	Cached         bool   `json:"cached"`
	Error          error  `json:"-"`
}

// Checker looks up the latest release. The zero value uses
// DefaultReleaseURL and no cache.
type Checker struct {
	URL      string
	HTTP     *http.Client
	CacheDir string // empty disables caching
}

// Check fetches the latest release and compares it with currentVersion.
// Development versions are never checked.
func (c *Checker) Check(ctx context.Context, currentVersion string) CheckResult {
	result := CheckResult{CurrentVersion: currentVersion}
	if IsDevelopmentVersion(currentVersion) {
		return result
	}

	url := c.URL
	if url == "" {
		url = DefaultReleaseURL
	}
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err
		return result
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("github api: %s", resp.Status)
		return result
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		result.Error = err
		return result
	}

	result.LatestVersion = release.TagName
	result.UpdateURL = release.HTMLURL
	result.HasUpdate = isNewer(release.TagName, currentVersion)
	return result
}

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	if v == "" || v == "unknown" || v == "dev" || v == "devel" {
		return true
	}
	return strings.HasPrefix(v, "devel+")
}

// validVersionRegex matches valid semver versions (v1.2.3, v1.2.3-beta, etc.)
var validVersionRegex = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*)?$`)

// UpdateCommand generates the go install command for updating.
// Returns empty string if version is invalid (prevents shell injection).
func UpdateCommand(version string) string {
	if !validVersionRegex.MatchString(version) {
		return ""
	}
	return fmt.Sprintf(
		"go install -ldflags \"-X main.Version=%s\" github.com/marcus/optsync@%s",
		version, version,
	)
}
