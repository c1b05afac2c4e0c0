package version

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsDevelopmentVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"unknown", true},
		{"dev", true},
		{"devel", true},
		{"devel+abc123", true},
		{"devel+abc+dirty", true},

		{"v0.1.0", false},
		{"1.0.0-beta", false},
		{"develop", false},
		{"DEV", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsDevelopmentVersion(tt.input); got != tt.expected {
				t.Errorf("IsDevelopmentVersion(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUpdateCommand(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"v1.2.3", `go install -ldflags "-X main.Version=v1.2.3" github.com/marcus/optsync@v1.2.3`},
		{"v1.0.0-rc.1", `go install -ldflags "-X main.Version=v1.0.0-rc.1" github.com/marcus/optsync@v1.0.0-rc.1`},
		{"", ""},
		{"v1.2.3; rm -rf /", ""},
		{"v1.2.3--", ""},
	}
	for _, tt := range tests {
		if got := UpdateCommand(tt.version); got != tt.expected {
			t.Errorf("UpdateCommand(%q) = %q, want %q", tt.version, got, tt.expected)
		}
	}
}

func TestParseSemver(t *testing.T) {
	tests := []struct {
		input    string
		expected [3]int
	}{
		{"v1.2.3", [3]int{1, 2, 3}},
		{"1.2.3", [3]int{1, 2, 3}},
		{"v2.0.0-rc.1", [3]int{2, 0, 0}},
		{"1.0.0+exp.sha.5114f85", [3]int{1, 0, 0}},
		{"2.0", [3]int{2, 0, 0}},
		{"v5", [3]int{5, 0, 0}},
		{"", [3]int{}},
		{"no.numbers.here", [3]int{}},
	}
	for _, tt := range tests {
		if got := parseSemver(tt.input); got != tt.expected {
			t.Errorf("parseSemver(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		expected        bool
	}{
		{"v1.0.0", "v0.9.9", true},
		{"v0.10.0", "v0.9.0", true},
		{"v0.1.10", "v0.1.9", true},
		{"v1.2.3", "v1.2.3", false},
		{"v0.1.0", "v0.2.0", false},
		{"v1.0.0-beta", "v1.0.0", false},
		{"1.0.0", "v0.9.9", true},
	}
	for _, tt := range tests {
		if got := isNewer(tt.latest, tt.current); got != tt.expected {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.expected)
		}
	}
}

func TestIsCacheValid(t *testing.T) {
	now := time.Now()
	fresh := &CacheEntry{LatestVersion: "v1.1.0", CurrentVersion: "v1.0.0", CheckedAt: now}
	stale := &CacheEntry{LatestVersion: "v1.1.0", CurrentVersion: "v1.0.0", CheckedAt: now.Add(-7 * time.Hour)}

	if IsCacheValid(nil, "v1.0.0") {
		t.Error("nil entry should be invalid")
	}
	if !IsCacheValid(fresh, "v1.0.0") {
		t.Error("fresh entry should be valid")
	}
	if IsCacheValid(stale, "v1.0.0") {
		t.Error("stale entry should be invalid")
	}
	if IsCacheValid(fresh, "v1.1.0") {
		t.Error("entry for another version should be invalid")
	}
}

func TestSaveAndLoadCache(t *testing.T) {
	dir := t.TempDir() + "/nested"
	entry := &CacheEntry{LatestVersion: "v2.0.0", CurrentVersion: "v1.0.0", CheckedAt: time.Now().UTC(), HasUpdate: true}
	if err := SaveCache(dir, entry); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}
	got, err := LoadCache(dir)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got.LatestVersion != "v2.0.0" || !got.HasUpdate || !got.CheckedAt.Equal(entry.CheckedAt) {
		t.Fatalf("loaded entry: %+v", got)
	}

	if _, err := LoadCache(t.TempDir()); err == nil {
		t.Fatal("expected error for missing cache")
	}
}

func releaseServer(t *testing.T, tag string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(Release{TagName: tag, HTMLURL: "https://example.com/" + tag})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck(t *testing.T) {
	var hits atomic.Int32
	srv := releaseServer(t, "v1.2.0", &hits)
	c := &Checker{URL: srv.URL}

	res := c.Check(context.Background(), "v1.1.0")
	if res.Error != nil {
		t.Fatalf("Check: %v", res.Error)
	}
	if !res.HasUpdate || res.LatestVersion != "v1.2.0" || res.UpdateURL == "" {
		t.Fatalf("result: %+v", res)
	}

	res = c.Check(context.Background(), "dev")
	if res.HasUpdate || hits.Load() != 1 {
		t.Fatalf("development versions must not be checked: %+v hits=%d", res, hits.Load())
	}
}

func TestCheckErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res := (&Checker{URL: srv.URL}).Check(context.Background(), "v1.0.0")
	if res.Error == nil {
		t.Fatal("expected error for 403")
	}
}

func TestCheckCached(t *testing.T) {
	var hits atomic.Int32
	srv := releaseServer(t, "v1.2.0", &hits)
	c := &Checker{URL: srv.URL, CacheDir: t.TempDir()}

	first := c.CheckCached(context.Background(), "v1.1.0")
	if first.Cached || !first.HasUpdate {
		t.Fatalf("first check: %+v", first)
	}
	second := c.CheckCached(context.Background(), "v1.1.0")
	if !second.Cached || second.LatestVersion != "v1.2.0" {
		t.Fatalf("second check should come from cache: %+v", second)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}

	c.CheckCached(context.Background(), "v1.2.0")
	if hits.Load() != 2 {
		t.Fatalf("version change should bypass cache, hits=%d", hits.Load())
	}
}
