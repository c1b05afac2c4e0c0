package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Gateway is the remote store that owns the authoritative option values.
// Implementations do not retry; a failed update leaves retry to the caller.
type Gateway interface {
	// FetchAll returns every known option. Failures are *FetchError.
	FetchAll(ctx context.Context) (Options, error)
	// UpdateOne writes a single option. Failures are *UpdateError.
	UpdateOne(ctx context.Context, name string, v Value) error
	// UpdateBatch writes all given options. Failures are *UpdateError.
	UpdateBatch(ctx context.Context, opts Options) error
}

// Snapshot looks up the last known authoritative value of an option.
type Snapshot interface {
	Lookup(name string) (Value, bool)
}

// SnapshotFunc adapts a plain function to Snapshot.
type SnapshotFunc func(name string) (Value, bool)

// Lookup calls f.
func (f SnapshotFunc) Lookup(name string) (Value, bool) { return f(name) }

var (
	// ErrSubmitInFlight is returned by Submit while another submit is running.
	ErrSubmitInFlight = errors.New("a settings submit is already in flight")
	// ErrUnknownOption is returned when an option name is not recognized.
	ErrUnknownOption = errors.New("unknown option")
)

// FetchError reports that reading the snapshot failed.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch settings: %v", e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// UpdateError reports that writing one or more options failed. Single-option
// updates set Name and Value; batch updates set Options.
type UpdateError struct {
	Name    string
	Value   Value
	Options Options
	Cause   error
}

func (e *UpdateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("update setting %s=%s: %v", e.Name, e.Value, e.Cause)
	}
	return fmt.Sprintf("update settings [%s]: %v", strings.Join(e.Options.Names(), ", "), e.Cause)
}

func (e *UpdateError) Unwrap() error { return e.Cause }

// asFetchError wraps err unless it already is a *FetchError.
func asFetchError(err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Cause: err}
}

// asBatchUpdateError wraps err unless it already is an *UpdateError.
func asBatchUpdateError(opts Options, err error) error {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return err
	}
	return &UpdateError{Options: opts, Cause: err}
}

// asUpdateError wraps err unless it already is an *UpdateError.
func asUpdateError(name string, v Value, err error) error {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return err
	}
	return &UpdateError{Name: name, Value: v, Cause: err}
}
