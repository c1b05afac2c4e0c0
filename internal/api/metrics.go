package api

import (
	"sync/atomic"
	"time"
)

// Metrics collects in-memory server metrics using atomic counters.
type Metrics struct {
	startTime      time.Time
	requests       atomic.Int64
	serverErrors   atomic.Int64
	clientErrors   atomic.Int64
	rateLimited    atomic.Int64
	optionsChanged atomic.Int64
}

// MetricsSnapshot is a point-in-time view of server metrics.
type MetricsSnapshot struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Requests       int64   `json:"requests"`
	ServerErrors   int64   `json:"server_errors"`
	ClientErrors   int64   `json:"client_errors"`
	RateLimited    int64   `json:"rate_limited"`
	OptionsChanged int64   `json:"options_changed"`
}

// NewMetrics creates a new Metrics instance with the current time as start.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordRequest increments the total request counter.
func (m *Metrics) RecordRequest() {
	m.requests.Add(1)
}

// RecordError increments the server error (5xx) counter.
func (m *Metrics) RecordError() {
	m.serverErrors.Add(1)
}

// RecordClientError increments the client error (4xx) counter.
func (m *Metrics) RecordClientError() {
	m.clientErrors.Add(1)
}

// RecordRateLimited increments the rejected-by-rate-limit counter.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Add(1)
}

// RecordOptionUpdates adds n to the changed options counter.
func (m *Metrics) RecordOptionUpdates(n int64) {
	m.optionsChanged.Add(n)
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSeconds:  time.Since(m.startTime).Seconds(),
		Requests:       m.requests.Load(),
		ServerErrors:   m.serverErrors.Load(),
		ClientErrors:   m.clientErrors.Load(),
		RateLimited:    m.rateLimited.Load(),
		OptionsChanged: m.optionsChanged.Load(),
	}
}
