package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/optsync/internal/webhook"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	ServerDBPath    string
	RegistryPath    string // option registry YAML; empty = built-in
	ShutdownTimeout time.Duration
	LogFormat       string // "json" (default) or "text"
	LogLevel        string // "debug", "info" (default), "warn", "error"

	RateLimitRead  int // GET /v1/* per API key per minute (default: 300)
	RateLimitWrite int // POST /v1/settings* per API key per minute (default: 60)

	CORSAllowedOrigins []string // allowed origins for browser clients; empty = disabled

	Webhook webhook.Config // option change notifications; empty URL = disabled

	Environment Environment
}

// Environment carries the opaque site facts the settings routes are gated on.
type Environment struct {
	Connected bool
	Staging   bool
	DevMode   DevMode
}

// DevMode records which sources switched development mode on.
type DevMode struct {
	Constant bool `json:"constant"`
	URL      bool `json:"url"`
	Filter   bool `json:"filter"`
}

// Active reports whether any source enabled development mode.
func (d DevMode) Active() bool {
	return d.Constant || d.URL || d.Filter
}

// LoadConfig reads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":8080",
		ServerDBPath:    "./data/server.db",
		ShutdownTimeout: 30 * time.Second,
		LogFormat:       "json",
		LogLevel:        "info",

		RateLimitRead:  300,
		RateLimitWrite: 60,

		Environment: Environment{Connected: true},
	}

	if v := os.Getenv("OPTSYNC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("OPTSYNC_SERVER_DB_PATH"); v != "" {
		cfg.ServerDBPath = v
	}
	if v := os.Getenv("OPTSYNC_REGISTRY_PATH"); v != "" {
		cfg.RegistryPath = v
	}
	if v := os.Getenv("OPTSYNC_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("OPTSYNC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("OPTSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("OPTSYNC_RATE_LIMIT_READ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitRead = n
		}
	}
	if v := os.Getenv("OPTSYNC_RATE_LIMIT_WRITE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitWrite = n
		}
	}

	if v := os.Getenv("OPTSYNC_CORS_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	cfg.Webhook = webhook.ConfigFromEnv()

	cfg.Environment.Connected = envBool("OPTSYNC_CONNECTED", cfg.Environment.Connected)
	cfg.Environment.Staging = envBool("OPTSYNC_STAGING", false)
	cfg.Environment.DevMode = DevMode{
		Constant: envBool("OPTSYNC_DEV_MODE_CONSTANT", false),
		URL:      envBool("OPTSYNC_DEV_MODE_URL", false),
		Filter:   envBool("OPTSYNC_DEV_MODE_FILTER", false),
	}

	return cfg
}

// envBool reads a boolean variable, keeping def when unset or unparsable.
func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
