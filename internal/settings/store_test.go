package settings

import (
	"context"
	"errors"
	"testing"
)

func TestStoreFetch(t *testing.T) {
	gw := newFakeGateway(Options{"site_name": String("Acme"), "notify_on": Bool(false)})
	s := NewStore(gw, nil)

	if s.Loaded() {
		t.Fatal("store should start unloaded")
	}
	opts, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opts) != 2 || !s.Loaded() {
		t.Fatalf("fetch result: %v loaded=%v", opts, s.Loaded())
	}
	if v, ok := s.Lookup("site_name"); !ok || !v.Equal(String("Acme")) {
		t.Fatalf("lookup: %v %v", v, ok)
	}
	if s.IsFetching() {
		t.Fatal("fetch should be finished")
	}
}

func TestStoreFetchErrorKeepsSnapshot(t *testing.T) {
	gw := newFakeGateway(Options{"site_name": String("Acme")})
	s := NewStore(gw, nil)
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	gw.fetchErr = errors.New("network down")
	_, err := s.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if s.LastError() == nil {
		t.Fatal("LastError should be set")
	}
	if v, ok := s.Lookup("site_name"); !ok || !v.Equal(String("Acme")) {
		t.Fatal("previous snapshot should survive a failed fetch")
	}
}

func TestStoreUnavailableSnapshotFallsBackToPending(t *testing.T) {
	gw := newFakeGateway(nil)
	gw.fetchErr = errors.New("unreachable")
	s := NewStore(gw, nil)
	e := NewEditor(s, s)

	if _, err := s.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if _, ok := e.EffectiveValue("site_name"); ok {
		t.Fatal("no value expected without snapshot")
	}
	e.Set("site_name", String("Acme"))
	if v, _ := e.EffectiveValue("site_name"); !v.Equal(String("Acme")) {
		t.Fatalf("pending value expected, got %v", v)
	}
}

func TestStoreUpdateBatchMergesSnapshot(t *testing.T) {
	gw := newFakeGateway(Options{"a": String("1"), "b": String("1")})
	s := NewStore(gw, nil)
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := s.UpdateBatch(context.Background(), Options{"b": String("2")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	snap := s.Snapshot()
	if !snap["a"].Equal(String("1")) || !snap["b"].Equal(String("2")) {
		t.Fatalf("snapshot after update: %v", snap)
	}
	if s.IsUpdating() {
		t.Fatal("update should be finished")
	}
}

func TestStoreUpdateOneError(t *testing.T) {
	gw := newFakeGateway(Options{})
	gw.updateErr = errors.New("denied")
	s := NewStore(gw, nil)

	err := s.UpdateOne(context.Background(), "site_name", String("Acme"))
	var ue *UpdateError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpdateError, got %T", err)
	}
	if ue.Name != "site_name" || !ue.Value.Equal(String("Acme")) {
		t.Fatalf("UpdateError fields: %+v", ue)
	}
	if _, ok := s.Lookup("site_name"); ok {
		t.Fatal("failed update must not reach the snapshot")
	}
}

func TestStoreIsUpdatingDuringFlight(t *testing.T) {
	gw := newFakeGateway(Options{})
	gw.block = true
	s := NewStore(gw, nil)
	e := NewEditor(s, s)
	e.Set("a", String("1"))

	done := make(chan error, 1)
	go func() { done <- e.Submit(context.Background(), nil) }()
	<-gw.started

	if !s.IsUpdating() {
		t.Fatal("store should report updating")
	}
	e.Set("b", String("2"))
	if !e.ShouldDisableSubmit(s.IsUpdating()) {
		t.Fatal("submit should be disabled while saving")
	}

	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.IsUpdating() {
		t.Fatal("store should be idle")
	}
	if e.ShouldDisableSubmit(s.IsUpdating()) {
		t.Fatal("submit should be enabled: b is still pending")
	}
}
