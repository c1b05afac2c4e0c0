// Package syncconfig stores the optsync client configuration and credentials
// under ~/.config/optsync.
package syncconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ServerConfig holds connection settings.
type ServerConfig struct {
	URL     string `json:"url,omitempty"`
	Timeout string `json:"timeout,omitempty"` // duration string, default "30s"
}

// Config is the client config stored at ~/.config/optsync/config.json.
type Config struct {
	Server ServerConfig `json:"server"`
	Output string       `json:"output,omitempty"` // "text" (default) or "json"
}

// AuthCredentials stores authentication state at ~/.config/optsync/auth.json.
type AuthCredentials struct {
	APIKey    string `json:"api_key"`
	ServerURL string `json:"server_url"`
	SavedAt   string `json:"saved_at"`
}

const (
	defaultServerURL = "http://localhost:8080"
	defaultTimeout   = 30 * time.Second
)

// Keys lists the settable config keys.
var Keys = []string{"url", "timeout", "output"}

// ConfigDir returns ~/.config/optsync, creating it if necessary.
// OPTSYNC_CONFIG_DIR overrides the location.
func ConfigDir() (string, error) {
	dir := os.Getenv("OPTSYNC_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "optsync")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// DraftPath returns the location of the pending-edits draft file.
func DraftPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "draft.json"), nil
}

// LoadConfig reads the client config.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config.json: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the client config.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Get returns the stored value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "url":
		return c.Server.URL, nil
	case "timeout":
		return c.Server.Timeout, nil
	case "output":
		return c.Output, nil
	}
	return "", unknownKey(key)
}

// Set validates and stores a config key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "url":
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("url must start with http:// or https://")
		}
		c.Server.URL = strings.TrimRight(value, "/")
	case "timeout":
		if value != "" {
			if d, err := time.ParseDuration(value); err != nil || d <= 0 {
				return fmt.Errorf("invalid timeout %q", value)
			}
		}
		c.Server.Timeout = value
	case "output":
		if value != "" && value != "text" && value != "json" {
			return fmt.Errorf("output must be text or json")
		}
		c.Output = value
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
}

// LoadAuth reads auth credentials, returning nil when none are saved.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse auth.json: %w", err)
	}
	return &creds, nil
}

// SaveAuth writes auth credentials (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if creds.SavedAt == "" {
		creds.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the server URL.
// Priority: OPTSYNC_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("OPTSYNC_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Server.URL != "" {
		return cfg.Server.URL
	}
	return defaultServerURL
}

// GetTimeout returns the HTTP timeout.
// Priority: OPTSYNC_TIMEOUT env > config.json > 30s.
func GetTimeout() time.Duration {
	if v := os.Getenv("OPTSYNC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Server.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Server.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return defaultTimeout
}

// GetOutputFormat returns "text" or "json".
// Priority: OPTSYNC_OUTPUT env > config.json > text.
func GetOutputFormat() string {
	valid := []string{"text", "json"}
	if v := strings.ToLower(os.Getenv("OPTSYNC_OUTPUT")); slices.Contains(valid, v) {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && slices.Contains(valid, cfg.Output) {
		return cfg.Output
	}
	return "text"
}

// GetAPIKey returns the API key.
// Priority: OPTSYNC_API_KEY env > auth.json.
func GetAPIKey() string {
	if v := os.Getenv("OPTSYNC_API_KEY"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.APIKey
	}
	return ""
}

// IsAuthenticated returns true if an API key is available.
func IsAuthenticated() bool {
	return GetAPIKey() != ""
}
