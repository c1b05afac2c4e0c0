package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcus/optsync/internal/draft"
	"github.com/marcus/optsync/internal/settings"
	"github.com/spf13/cobra"
)

// settingsServer fakes the optsync REST API. fetchStatus and updateStatus
// pick the response codes; every batch update body is recorded.
type settingsServer struct {
	fetchStatus  int
	updateStatus int
	onUpdate     func()

	mu      sync.Mutex
	updates []settings.Options
	posts   atomic.Int32
}

func (s *settingsServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/settings", func(w http.ResponseWriter, r *http.Request) {
		if s.fetchStatus != http.StatusOK {
			writeTestError(w, s.fetchStatus, "internal_error", "db down")
			return
		}
		json.NewEncoder(w).Encode(settings.Options{"site_name": settings.String("Old")})
	})
	mux.HandleFunc("GET /v1/settings/schema", func(w http.ResponseWriter, r *http.Request) {
		writeTestError(w, http.StatusNotFound, "not_found", "no schema")
	})
	mux.HandleFunc("POST /v1/settings", func(w http.ResponseWriter, r *http.Request) {
		s.posts.Add(1)
		var opts settings.Options
		json.NewDecoder(r.Body).Decode(&opts)
		s.mu.Lock()
		s.updates = append(s.updates, opts)
		s.mu.Unlock()
		if s.onUpdate != nil {
			s.onUpdate()
		}
		if s.updateStatus != http.StatusOK {
			writeTestError(w, s.updateStatus, "invalid_value", "rejected")
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"code": "success", "message": "Settings updated"})
	})
	return mux
}

func writeTestError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

// setupSave points the client config at srv and seeds the draft with pending.
func setupSave(t *testing.T, srv *settingsServer, pending settings.Options) *draft.File {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	t.Setenv("OPTSYNC_CONFIG_DIR", t.TempDir())
	t.Setenv("OPTSYNC_URL", ts.URL)
	t.Setenv("OPTSYNC_API_KEY", "os_live_test")
	t.Setenv("OPTSYNC_OUTPUT", "")

	f, err := openDraft()
	if err != nil {
		t.Fatal(err)
	}
	err = f.Update(func(d *draft.Draft) error {
		d.Pending = pending.Clone()
		d.Server = ts.URL
		return nil
	})
	if err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	return f
}

func jsonCommand() *cobra.Command {
	c := &cobra.Command{Use: "save"}
	c.Flags().Bool("json", true, "")
	c.SetContext(context.Background())
	return c
}

func loadPending(t *testing.T, f *draft.File) settings.Options {
	t.Helper()
	d, err := f.Load()
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	return d.Pending
}

func TestSaveDraftClearsDraftOnSuccess(t *testing.T) {
	srv := &settingsServer{fetchStatus: http.StatusOK, updateStatus: http.StatusOK}
	f := setupSave(t, srv, settings.Options{
		"site_name": settings.String("Acme"),
		"notify_on": settings.Bool(true),
	})

	res, err := saveDraft(jsonCommand())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !slices.Equal(res.Saved, []string{"notify_on", "site_name"}) || len(res.Remaining) != 0 {
		t.Fatalf("result: %+v", res)
	}
	if p := loadPending(t, f); len(p) != 0 {
		t.Fatalf("draft should be empty after a successful save, got %v", p)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.updates) != 1 || !srv.updates[0]["notify_on"].Equal(settings.Bool(true)) {
		t.Fatalf("server received %v", srv.updates)
	}
}

func TestSaveDraftKeepsDraftOnFailure(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			pending := settings.Options{"site_name": settings.String("Acme")}
			srv := &settingsServer{fetchStatus: http.StatusOK, updateStatus: status}
			f := setupSave(t, srv, pending)

			res, err := saveDraft(jsonCommand())
			if err == nil {
				t.Fatalf("expected error, got %+v", res)
			}
			var ue *settings.UpdateError
			if !errors.As(err, &ue) {
				t.Fatalf("expected *settings.UpdateError, got %T: %v", err, err)
			}
			got := loadPending(t, f)
			if len(got) != 1 || !got["site_name"].Equal(settings.String("Acme")) {
				t.Fatalf("draft changed after failed save: %v", got)
			}
		})
	}
}

func TestSaveDraftWithoutServerSnapshot(t *testing.T) {
	srv := &settingsServer{fetchStatus: http.StatusInternalServerError, updateStatus: http.StatusOK}
	f := setupSave(t, srv, settings.Options{"site_name": settings.String("Acme")})

	res, err := saveDraft(jsonCommand())
	if err != nil {
		t.Fatalf("save should not need the snapshot: %v", err)
	}
	if srv.posts.Load() != 1 {
		t.Fatalf("expected one update request, got %d", srv.posts.Load())
	}
	if len(res.Saved) != 1 {
		t.Fatalf("result: %+v", res)
	}
	if p := loadPending(t, f); len(p) != 0 {
		t.Fatalf("draft should be empty, got %v", p)
	}
}

func TestSaveDraftKeepsEditsRecordedDuringSave(t *testing.T) {
	srv := &settingsServer{fetchStatus: http.StatusOK, updateStatus: http.StatusOK}
	done := make(chan error, 1)
	srv.onUpdate = func() {
		// Another optsync process records an edit while the save is running;
		// it waits on the draft lock rather than being lost.
		go func() {
			other, err := openDraft()
			if err == nil {
				err = other.Update(func(d *draft.Draft) error {
					d.Pending["comment_form_title"] = settings.String("Reply")
					return nil
				})
			}
			done <- err
		}()
	}
	f := setupSave(t, srv, settings.Options{"site_name": settings.String("Acme")})

	if _, err := saveDraft(jsonCommand()); err != nil {
		t.Fatalf("save: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("concurrent edit: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent edit never finished")
	}

	got := loadPending(t, f)
	if len(got) != 1 || !got["comment_form_title"].Equal(settings.String("Reply")) {
		t.Fatalf("draft should hold only the later edit, got %v", got)
	}
}

func TestSaveDraftNothingPending(t *testing.T) {
	srv := &settingsServer{fetchStatus: http.StatusOK, updateStatus: http.StatusOK}
	setupSave(t, srv, settings.Options{})

	res, err := saveDraft(jsonCommand())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(res.Saved) != 0 || srv.posts.Load() != 0 {
		t.Fatalf("empty draft should not reach the server: %+v posts=%d", res, srv.posts.Load())
	}
}
