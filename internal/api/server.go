package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/serverdb"
	"github.com/marcus/optsync/internal/webhook"
)

// Server is the HTTP API server for optsync-server.
type Server struct {
	config      Config
	http        *http.Server
	store       *serverdb.ServerDB
	registry    *registry.Registry
	metrics     *Metrics
	rateLimiter *RateLimiter
	webhooks    *webhook.Notifier // nil when no webhook is configured
	cancel      context.CancelFunc
}

// NewServer creates a new Server with the given config, store and option
// registry. A nil registry means the built-in one.
func NewServer(cfg Config, store *serverdb.ServerDB, reg *registry.Registry) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("new server: nil store")
	}
	if reg == nil {
		reg = registry.Default()
	}
	s := &Server{
		config:      cfg,
		store:       store,
		registry:    reg,
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(),
	}
	if cfg.Webhook.Enabled() {
		s.webhooks = webhook.NewNotifier(cfg.Webhook, 64, slog.Default())
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.rateLimiter.run(ctx, 5*time.Minute)
	if s.webhooks != nil {
		go s.webhooks.Run(ctx)
	}

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.http.Shutdown(ctx)
}

// Handler returns the fully wired HTTP handler, for embedding the server in
// another listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	// Connection status
	mux.HandleFunc("GET /v1/connection", s.requireAuth(s.withRateLimit(s.handleConnection, s.config.RateLimitRead)))

	// Settings
	mux.HandleFunc("GET /v1/settings", s.requireCapability(CapSettingsView, s.withRateLimit(s.handleGetSettings, s.config.RateLimitRead)))
	mux.HandleFunc("GET /v1/settings/schema", s.requireCapability(CapSettingsView, s.withRateLimit(s.handleGetSchema, s.config.RateLimitRead)))
	mux.HandleFunc("POST /v1/settings", s.requireCapability(CapSettingsConfigure, s.withRateLimit(s.handleUpdateSettings, s.config.RateLimitWrite)))
	mux.HandleFunc("POST /v1/settings/{name}", s.requireCapability(CapSettingsConfigure, s.withRateLimit(s.handleUpdateSetting, s.config.RateLimitWrite)))

	return chain(mux, requestIDMiddleware, accessMiddleware(s.metrics), recoveryMiddleware, s.CORSMiddleware, maxBytesMiddleware(1<<20))
}

// handleHealth returns a health check response, pinging the server DB.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
