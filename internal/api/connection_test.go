package api

import (
	"net/http"
	"testing"
)

func TestConnectionStatus(t *testing.T) {
	h := newTestHarness(t, func(cfg *Config) {
		cfg.Environment = Environment{
			Connected: true,
			Staging:   true,
			DevMode:   DevMode{Filter: true},
		}
	})
	_, token := h.CreateUser("any@test.com", CapSettingsView)

	resp := h.Do("GET", "/v1/connection", token, nil)
	AssertStatus(t, resp, http.StatusOK)
	got := ReadJSON[map[string]any](t, resp)

	if got["isActive"] != true || got["isStaging"] != true {
		t.Fatalf("connection flags: %v", got)
	}
	dev, ok := got["devMode"].(map[string]any)
	if !ok {
		t.Fatalf("devMode missing: %v", got)
	}
	want := map[string]bool{"isActive": true, "constant": false, "url": false, "filter": true}
	for k, v := range want {
		if dev[k] != v {
			t.Errorf("devMode.%s: got %v, want %v", k, dev[k], v)
		}
	}
}

func TestDevModeActive(t *testing.T) {
	if (DevMode{}).Active() {
		t.Fatal("zero DevMode should be inactive")
	}
	for _, d := range []DevMode{{Constant: true}, {URL: true}, {Filter: true}} {
		if !d.Active() {
			t.Fatalf("%+v should be active", d)
		}
	}
}
