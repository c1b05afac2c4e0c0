// Package webhook posts option changes to an external HTTP endpoint.
package webhook

import (
	"os"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config is the webhook destination.
type Config struct {
	URL     string
	Secret  string // HMAC-SHA256 key; empty disables signing
	Timeout time.Duration
}

// ConfigFromEnv reads OPTSYNC_WEBHOOK_URL and OPTSYNC_WEBHOOK_SECRET.
func ConfigFromEnv() Config {
	return Config{
		URL:     os.Getenv("OPTSYNC_WEBHOOK_URL"),
		Secret:  os.Getenv("OPTSYNC_WEBHOOK_SECRET"),
		Timeout: defaultTimeout,
	}
}

// Enabled reports whether a webhook URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}
