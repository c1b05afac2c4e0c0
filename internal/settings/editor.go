package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcus/optsync/internal/notice"
)

// UpdateNoticeID keys the notices posted by Submit so repeated submits
// replace each other instead of stacking.
const UpdateNoticeID = "settings-update"

// ControlKind identifies the kind of input control that produced an edit.
type ControlKind string

const (
	ControlCheckbox ControlKind = "checkbox"
	ControlText     ControlKind = "text"
	ControlSelect   ControlKind = "select"
)

// FieldEvent is a raw change coming from an input control.
type FieldEvent struct {
	Name  string
	Value string
	Kind  ControlKind
	// Checked is the checkbox state when the control reports one.
	Checked *bool
}

// value resolves the stored value: checkboxes with a checked state store a
// bool, everything else stores the raw string.
func (ev FieldEvent) value() Value {
	if ev.Kind == ControlCheckbox && ev.Checked != nil {
		return Bool(*ev.Checked)
	}
	return String(ev.Value)
}

// DirtyObserver is told when unsaved edits appear and when they are gone.
type DirtyObserver interface {
	MarkUnsaved()
	ClearUnsaved()
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithObserver attaches a dirty-state observer.
func WithObserver(o DirtyObserver) EditorOption {
	return func(e *Editor) { e.observer = o }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) EditorOption {
	return func(e *Editor) { e.log = l }
}

// Editor holds uncommitted option edits on top of an authoritative snapshot
// and submits them through a Gateway. Edits may continue while a submit is
// in flight, but only one submit runs at a time.
type Editor struct {
	gateway  Gateway
	snapshot Snapshot
	observer DirtyObserver
	log      *slog.Logger

	mu         sync.Mutex
	pending    Options
	submitting bool
}

// NewEditor creates an Editor with no pending edits. snapshot may be nil
// when no authoritative values are available.
func NewEditor(gw Gateway, snapshot Snapshot, opts ...EditorOption) *Editor {
	e := &Editor{
		gateway:  gw,
		snapshot: snapshot,
		log:      slog.Default(),
		pending:  Options{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordFieldChange stores the value carried by ev as a pending edit.
func (e *Editor) RecordFieldChange(ev FieldEvent) {
	e.Set(ev.Name, ev.value())
}

// Set stores v as the pending value of name.
func (e *Editor) Set(name string, v Value) {
	e.mu.Lock()
	e.pending[name] = v
	e.mu.Unlock()

	e.log.Debug("settings: pending edit", "name", name, "value", v.String())
	if e.observer != nil {
		e.observer.MarkUnsaved()
	}
}

// EffectiveValue returns the pending value of name if there is one,
// otherwise the snapshot value.
func (e *Editor) EffectiveValue(name string) (Value, bool) {
	e.mu.Lock()
	v, ok := e.pending[name]
	e.mu.Unlock()
	if ok {
		return v, true
	}
	if e.snapshot == nil {
		return Value{}, false
	}
	return e.snapshot.Lookup(name)
}

// Pending returns a copy of the pending edits.
func (e *Editor) Pending() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.Clone()
}

// IsDirty reports whether there are pending edits.
func (e *Editor) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending) > 0
}

// IsSubmitting reports whether a submit is in flight.
func (e *Editor) IsSubmitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// ShouldDisableSubmit reports whether a submit control should be disabled:
// while any option is saving, or when there is nothing to save.
func (e *Editor) ShouldDisableSubmit(saving bool) bool {
	return saving || !e.IsDirty()
}

// Discard drops every pending edit.
func (e *Editor) Discard() {
	e.mu.Lock()
	e.pending = Options{}
	e.mu.Unlock()
	if e.observer != nil {
		e.observer.ClearUnsaved()
	}
}

// Submit sends a copy of the pending edits to the gateway's batch update.
// On success the submitted edits leave the pending set; edits recorded
// while the request was in flight stay. On failure nothing is cleared and an
// *UpdateError is returned. Progress is posted to sink under UpdateNoticeID.
// With nothing pending Submit returns nil without calling the gateway.
func (e *Editor) Submit(ctx context.Context, sink notice.Sink) error {
	if sink == nil {
		sink = notice.Discard
	}

	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.submitting = true
	batch := e.pending.Clone()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()

	postNotice(sink, notice.StatusInfo, "Updating settings…")

	if err := e.gateway.UpdateBatch(ctx, batch); err != nil {
		err = asBatchUpdateError(batch, err)
		e.log.Debug("settings: submit failed", "count", len(batch), "err", err)
		postNotice(sink, notice.StatusError, fmt.Sprintf("Error updating settings. %s", causeText(err)))
		return err
	}

	e.mu.Lock()
	for name, sent := range batch {
		if cur, ok := e.pending[name]; ok && cur.Equal(sent) {
			delete(e.pending, name)
		}
	}
	clean := len(e.pending) == 0
	e.mu.Unlock()

	e.log.Debug("settings: submitted", "count", len(batch), "clean", clean)
	if clean && e.observer != nil {
		e.observer.ClearUnsaved()
	}
	postNotice(sink, notice.StatusSuccess, "Updated settings.")
	return nil
}

func postNotice(sink notice.Sink, status notice.Status, text string) {
	sink.Remove(UpdateNoticeID)
	sink.Create(notice.Notice{ID: UpdateNoticeID, Status: status, Text: text})
}

// causeText returns the message of the error underlying an UpdateError.
func causeText(err error) string {
	var ue *UpdateError
	if errors.As(err, &ue) && ue.Cause != nil {
		return ue.Cause.Error()
	}
	return err.Error()
}
