package api

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.ListenAddr != ":8080" || cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Environment.Connected || cfg.Environment.DevMode.Active() {
		t.Fatalf("environment defaults: %+v", cfg.Environment)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("OPTSYNC_LISTEN_ADDR", ":9090")
	t.Setenv("OPTSYNC_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("OPTSYNC_RATE_LIMIT_WRITE", "7")
	t.Setenv("OPTSYNC_RATE_LIMIT_READ", "-1")
	t.Setenv("OPTSYNC_CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("OPTSYNC_CONNECTED", "false")
	t.Setenv("OPTSYNC_STAGING", "1")
	t.Setenv("OPTSYNC_DEV_MODE_CONSTANT", "true")
	t.Setenv("OPTSYNC_DEV_MODE_URL", "garbage")

	cfg := LoadConfig()
	if cfg.ListenAddr != ":9090" || cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("listen/shutdown: %+v", cfg)
	}
	if cfg.RateLimitWrite != 7 || cfg.RateLimitRead != 300 {
		t.Fatalf("rate limits: write=%d read=%d", cfg.RateLimitWrite, cfg.RateLimitRead)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("origins: %v", cfg.CORSAllowedOrigins)
	}
	env := cfg.Environment
	if env.Connected || !env.Staging || !env.DevMode.Constant || env.DevMode.URL {
		t.Fatalf("environment: %+v", env)
	}
}
