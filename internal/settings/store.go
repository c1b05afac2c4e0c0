package settings

import (
	"context"
	"log/slog"
	"maps"
	"sync"
)

// Store wraps a Gateway, caching the last fetched snapshot and tracking
// requests in flight. It implements both Gateway and Snapshot, so an Editor
// built on a Store reads and writes through the same cache.
type Store struct {
	gw  Gateway
	log *slog.Logger

	mu       sync.RWMutex
	snapshot Options
	loaded   bool
	fetching int
	updating int
	lastErr  error
}

// NewStore creates a Store over gw with no snapshot loaded.
func NewStore(gw Gateway, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{gw: gw, log: logger}
}

// Fetch refreshes the snapshot from the gateway. On failure the previous
// snapshot (if any) is kept and a *FetchError is returned.
func (s *Store) Fetch(ctx context.Context) (Options, error) {
	s.mu.Lock()
	s.fetching++
	s.mu.Unlock()

	opts, err := s.gw.FetchAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching--
	if err != nil {
		err = asFetchError(err)
		s.lastErr = err
		s.log.Debug("settings: fetch failed", "err", err)
		return nil, err
	}
	s.snapshot = opts.Clone()
	s.loaded = true
	s.lastErr = nil
	s.log.Debug("settings: fetched", "count", len(opts))
	return opts.Clone(), nil
}

// FetchAll implements Gateway by delegating to Fetch.
func (s *Store) FetchAll(ctx context.Context) (Options, error) {
	return s.Fetch(ctx)
}

// UpdateOne writes a single option and folds it into the snapshot on success.
func (s *Store) UpdateOne(ctx context.Context, name string, v Value) error {
	s.beginUpdate()
	err := s.gw.UpdateOne(ctx, name, v)
	if err != nil {
		err = asUpdateError(name, v, err)
	}
	s.endUpdate(Options{name: v}, err)
	return err
}

// UpdateBatch writes all given options and folds them into the snapshot on
// success.
func (s *Store) UpdateBatch(ctx context.Context, opts Options) error {
	s.beginUpdate()
	err := s.gw.UpdateBatch(ctx, opts)
	if err != nil {
		err = asBatchUpdateError(opts, err)
	}
	s.endUpdate(opts, err)
	return err
}

func (s *Store) beginUpdate() {
	s.mu.Lock()
	s.updating++
	s.mu.Unlock()
}

func (s *Store) endUpdate(applied Options, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updating--
	if err != nil {
		s.lastErr = err
		s.log.Debug("settings: update failed", "count", len(applied), "err", err)
		return
	}
	if s.snapshot == nil {
		s.snapshot = Options{}
	}
	maps.Copy(s.snapshot, applied)
	s.lastErr = nil
}

// Lookup returns the snapshot value of name.
func (s *Store) Lookup(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.snapshot[name]
	return v, ok
}

// Snapshot returns a copy of the cached snapshot.
func (s *Store) Snapshot() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Loaded reports whether a fetch has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// IsFetching reports whether a fetch is in flight.
func (s *Store) IsFetching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetching > 0
}

// IsUpdating reports whether any update is in flight.
func (s *Store) IsUpdating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updating > 0
}

// LastError returns the error of the most recent failed request, cleared
// by the next successful one.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
