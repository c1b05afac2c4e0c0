package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
	"github.com/marcus/optsync/internal/webhook"
)

// UpdateResponse is returned by both update routes.
type UpdateResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SingleUpdateRequest is the body of POST /v1/settings/{name}.
type SingleUpdateRequest struct {
	Value *settings.Value `json:"value"`
}

// currentOptions overlays stored values on registry defaults. Stored values
// for options no longer in the registry are left out.
func (s *Server) currentOptions() (settings.Options, error) {
	stored, err := s.store.GetOptions()
	if err != nil {
		return nil, err
	}
	opts := s.registry.Defaults()
	for name, v := range stored {
		if _, ok := opts[name]; ok {
			opts[name] = v
		}
	}
	return opts, nil
}

// handleGetSettings returns the value of every registered option.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	opts, err := s.currentOptions()
	if err != nil {
		logFor(r.Context()).Error("get settings", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleGetSchema returns the option definitions.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Definitions())
}

// handleUpdateSettings applies a batch of option values atomically.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var opts settings.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid json: "+err.Error())
		return
	}
	if len(opts) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "no options to update")
		return
	}
	s.applyOptions(w, r, opts)
}

// handleUpdateSetting applies a single option value.
func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req SingleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "value is required")
		return
	}
	s.applyOptions(w, r, settings.Options{name: *req.Value})
}

func (s *Server) applyOptions(w http.ResponseWriter, r *http.Request, opts settings.Options) {
	if err := s.registry.ValidateAll(opts); err != nil {
		switch {
		case errors.Is(err, settings.ErrUnknownOption):
			writeError(w, http.StatusBadRequest, ErrCodeUnknownOption, err.Error())
		case registry.IsInvalidValue(err):
			writeError(w, http.StatusBadRequest, ErrCodeInvalidValue, err.Error())
		default:
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		}
		return
	}

	user := getUserFromContext(r.Context())
	changes, err := s.store.SetOptions(opts, user.UserID)
	if err != nil {
		logFor(r.Context()).Error("set options", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to update settings")
		return
	}
	s.metrics.RecordOptionUpdates(int64(len(changes)))

	for _, ch := range changes {
		logFor(r.Context()).Info("option changed", "name", ch.Name, "value", ch.NewValue.String())
	}
	if len(changes) > 0 && s.webhooks != nil {
		s.webhooks.Notify(webhook.BuildPayload(changes))
	}
	writeJSON(w, http.StatusOK, UpdateResponse{
		Code:    "success",
		Message: updateMessage(len(opts), len(changes)),
	})
}

func updateMessage(submitted, changed int) string {
	if submitted == 1 {
		if changed == 0 {
			return "Option unchanged."
		}
		return "Option updated."
	}
	return fmt.Sprintf("%d options submitted, %d changed.", submitted, changed)
}
