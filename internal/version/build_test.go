package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	stamped := func(mainVersion string, settings ...debug.BuildSetting) *debug.BuildInfo {
		return &debug.BuildInfo{Main: debug.Module{Version: mainVersion}, Settings: settings}
	}
	rev := debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"}
	dirty := debug.BuildSetting{Key: "vcs.modified", Value: "true"}

	tests := []struct {
		name     string
		injected string
		info     *debug.BuildInfo
		want     string
	}{
		{"injected wins", "v1.2.3", stamped("v0.9.0"), "v1.2.3"},
		{"no build info", "dev", nil, "dev"},
		{"module version", "dev", stamped("v0.4.1"), "v0.4.1"},
		{"vcs revision", "dev", stamped("(devel)", rev), "devel+0123456789ab"},
		{"dirty tree", "", stamped("(devel)", rev, dirty), "devel+0123456789ab+dirty"},
		{"short revision", "dev", stamped("", debug.BuildSetting{Key: "vcs.revision", Value: "abc"}), "devel+abc"},
		{"nothing stamped", "dev", stamped("(devel)"), "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBuildInfo(tt.injected, tt.info); got != tt.want {
				t.Errorf("fromBuildInfo(%q) = %q, want %q", tt.injected, got, tt.want)
			}
		})
	}
}
