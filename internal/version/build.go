package version

import (
	"runtime/debug"
	"strings"
)

// Resolve returns the version to report for a binary whose link-time
// version is injected. An empty or "dev" injection falls back to the
// module version, then to a devel+<rev>[+dirty] string from VCS stamps.
func Resolve(injected string) string {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(injected, info)
}

func fromBuildInfo(injected string, info *debug.BuildInfo) string {
	if injected != "" && injected != "dev" {
		return injected
	}
	if info == nil {
		return injected
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return injected
	}
	parts := []string{"devel", rev[:min(len(rev), 12)]}
	if dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "+")
}
