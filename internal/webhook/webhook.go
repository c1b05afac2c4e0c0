package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/marcus/optsync/internal/serverdb"
	"github.com/marcus/optsync/internal/settings"
)

// Payload is the webhook POST body.
type Payload struct {
	Timestamp string          `json:"timestamp"`
	Changes   []ChangePayload `json:"changes"`
}

// ChangePayload is one option change within a payload.
type ChangePayload struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	OldValue  *settings.Value `json:"old_value"`
	NewValue  settings.Value  `json:"new_value"`
	UserID    string          `json:"user_id"`
	ChangedAt string          `json:"changed_at"`
}

// BuildPayload converts recorded option changes into a webhook payload.
func BuildPayload(changes []*serverdb.OptionChange) Payload {
	p := Payload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Changes:   make([]ChangePayload, len(changes)),
	}
	for i, ch := range changes {
		p.Changes[i] = ChangePayload{
			ID:        ch.ID,
			Name:      ch.Name,
			OldValue:  ch.OldValue,
			NewValue:  ch.NewValue,
			UserID:    ch.UserID,
			ChangedAt: ch.ChangedAt.UTC().Format(time.RFC3339),
		}
	}
	return p
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<body>".
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Dispatch performs a synchronous HTTP POST of payload to cfg.URL.
// Returns nil on a 2xx status.
func Dispatch(ctx context.Context, cfg Config, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "optsync-webhook/1")

	unixTS := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Optsync-Timestamp", unixTS)
	if cfg.Secret != "" {
		req.Header.Set("X-Optsync-Signature", "sha256="+Sign(cfg.Secret, unixTS, body))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: status %d", cfg.URL, resp.StatusCode)
	}
	return nil
}

// Notifier delivers payloads in the background, one at a time and in order.
// A full queue drops the payload.
type Notifier struct {
	cfg   Config
	queue chan Payload
	log   *slog.Logger
}

// NewNotifier creates a Notifier with room for size queued payloads.
func NewNotifier(cfg Config, size int, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cfg: cfg, queue: make(chan Payload, size), log: logger}
}

// Notify queues p without blocking. It reports whether p was queued.
func (n *Notifier) Notify(p Payload) bool {
	select {
	case n.queue <- p:
		return true
	default:
		n.log.Warn("webhook queue full, dropping payload", "changes", len(p.Changes))
		return false
	}
}

// Run delivers queued payloads until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-n.queue:
			if err := Dispatch(ctx, n.cfg, p); err != nil {
				n.log.Warn("webhook dispatch failed", "url", n.cfg.URL, "err", err)
				continue
			}
			n.log.Debug("webhook delivered", "changes", len(p.Changes))
		}
	}
}
