package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marcus/optsync/internal/draft"
	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
	"github.com/marcus/optsync/internal/syncclient"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in (run: optsync auth login --key <key>)")

// newClient builds a client for the configured server. With requireAuth it
// fails when no API key is available.
func newClient(requireAuth bool) (*syncclient.Client, error) {
	key := syncconfig.GetAPIKey()
	if requireAuth && key == "" {
		return nil, errNotLoggedIn
	}
	c := syncclient.New(syncconfig.GetServerURL(), key)
	c.HTTP.Timeout = syncconfig.GetTimeout()
	return c, nil
}

func openDraft() (*draft.File, error) {
	path, err := syncconfig.DraftPath()
	if err != nil {
		return nil, err
	}
	return draft.Open(path), nil
}

// jsonMode reports whether JSON output was requested by flag or config.
func jsonMode(cmd *cobra.Command) bool {
	if v, _ := cmd.Flags().GetBool("json"); v {
		return true
	}
	return syncconfig.GetOutputFormat() == "json"
}

// session is the client-side state most commands work on: the server
// snapshot, its schema and an editor seeded with the local draft. When the
// snapshot could not be fetched, fetchErr holds why and the store stays
// unloaded, so effective values fall back to pending edits and defaults.
type session struct {
	client   *syncclient.Client
	store    *settings.Store
	registry *registry.Registry
	editor   *settings.Editor
	fetchErr error
}

// loadSession fetches the snapshot and schema and replays pending edits.
// Only a missing login is fatal; an unreachable server leaves the session
// usable with local edits.
func loadSession(ctx context.Context, pending settings.Options) (*session, error) {
	client, err := newClient(true)
	if err != nil {
		return nil, err
	}

	s := &session{client: client, store: settings.NewStore(client, slog.Default())}
	if _, err := s.store.Fetch(ctx); err != nil {
		s.fetchErr = err
		slog.Warn("server values unavailable, using local edits and defaults", "err", err)
	}
	s.registry = schemaOrDefault(ctx, client)

	s.editor = settings.NewEditor(s.store, s.store, settings.WithLogger(slog.Default()))
	for _, name := range pending.Names() {
		s.editor.Set(name, pending[name])
	}
	return s, nil
}

// loadRegistry fetches the server schema without requiring a login.
func loadRegistry(ctx context.Context) *registry.Registry {
	client, err := newClient(false)
	if err != nil {
		return registry.Default()
	}
	return schemaOrDefault(ctx, client)
}

// schemaOrDefault returns the server schema, or the built-in registry when
// the server cannot provide one.
func schemaOrDefault(ctx context.Context, client *syncclient.Client) *registry.Registry {
	reg, err := client.Registry(ctx)
	if err != nil {
		slog.Debug("schema unavailable, using built-in registry", "err", err)
		return registry.Default()
	}
	return reg
}

// warnServerMismatch warns when the draft was recorded against another server.
func warnServerMismatch(d *draft.Draft) {
	if d.Server != "" && d.Server != syncconfig.GetServerURL() {
		output.Warning("draft was recorded for %s, current server is %s", d.Server, syncconfig.GetServerURL())
	}
}

// reportedError marks an error that was already shown to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// fail reports err in the active output mode and returns it for cobra.
func fail(cmd *cobra.Command, err error) error {
	if jsonMode(cmd) {
		output.JSONError(errCode(err), err.Error())
	} else {
		output.Error("%v", err)
	}
	return reportedError{err}
}

// errCode picks the JSON error code for err, preferring the server's own
// code when the error came back from the API.
func errCode(err error) string {
	switch {
	case errors.Is(err, errNotLoggedIn):
		return output.ErrCodeNotLoggedIn
	case syncclient.ErrorCode(err) != "":
		return syncclient.ErrorCode(err)
	case errors.Is(err, settings.ErrUnknownOption):
		return output.ErrCodeUnknownOption
	case registry.IsInvalidValue(err):
		return output.ErrCodeInvalidInput
	}
	return output.ErrCodeServerError
}
