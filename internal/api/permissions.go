package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Capabilities an API key can carry.
const (
	CapSettingsView      = "settings:view"
	CapSettingsConfigure = "settings:configure"
	CapAdmin             = "admin"
)

var validCapabilities = []string{CapSettingsView, CapSettingsConfigure, CapAdmin}

// ValidateCapabilities checks a comma-separated capability list and returns
// it normalized. An empty list is valid.
func ValidateCapabilities(s string) (string, error) {
	caps := parseCapabilities(s)
	for _, c := range caps {
		if !slices.Contains(validCapabilities, c) {
			return "", fmt.Errorf("unknown capability %q (valid: %s)", c, strings.Join(validCapabilities, ", "))
		}
	}
	return strings.Join(caps, ","), nil
}

func parseCapabilities(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// HasCapability reports whether the user holds cap. admin implies every
// capability, and settings:configure implies settings:view.
func (u *AuthUser) HasCapability(capability string) bool {
	if u == nil {
		return false
	}
	if slices.Contains(u.Capabilities, CapAdmin) {
		return true
	}
	if capability == CapSettingsView && slices.Contains(u.Capabilities, CapSettingsConfigure) {
		return true
	}
	return slices.Contains(u.Capabilities, capability)
}

// requireCapability wraps requireAuth and refuses keys lacking capability.
// While development mode is active only admin keys reach the handler.
func (s *Server) requireCapability(capability string, handler http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r.Context())
		if !user.HasCapability(capability) {
			writeError(w, http.StatusForbidden, ErrCodeInsufficientCapability,
				fmt.Sprintf("api key lacks the %s capability", capability))
			return
		}
		if s.config.Environment.DevMode.Active() && !user.HasCapability(CapAdmin) {
			writeError(w, http.StatusForbidden, ErrCodeDevMode,
				"settings cannot be managed while development mode is active")
			return
		}
		handler(w, r)
	})
}
