// Package draft persists pending option edits between optsync invocations.
// A draft lives in a JSON file guarded by an OS file lock.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marcus/optsync/internal/settings"
)

// Draft is the on-disk set of pending edits.
type Draft struct {
	Server    string           `json:"server,omitempty"`
	Pending   settings.Options `json:"pending"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Empty reports whether the draft holds no edits.
func (d *Draft) Empty() bool {
	return d == nil || len(d.Pending) == 0
}

// File is a draft file on disk.
type File struct {
	Path        string
	LockTimeout time.Duration
}

// Open returns a File at path with the default lock timeout.
func Open(path string) *File {
	return &File{Path: path, LockTimeout: defaultLockTimeout}
}

// Load reads the draft without taking the lock. A missing file is an empty
// draft.
func (f *File) Load() (*Draft, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &Draft{Pending: settings.Options{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse draft %s: %w", f.Path, err)
	}
	if d.Pending == nil {
		d.Pending = settings.Options{}
	}
	return &d, nil
}

// Update runs fn on the current draft while holding the lock, then writes
// the result back. An empty draft removes the file. If fn fails nothing is
// written and its error is returned.
func (f *File) Update(fn func(*Draft) error) error {
	lock := newFileLock(f.Path)
	if err := lock.acquire(f.LockTimeout); err != nil {
		return err
	}
	defer lock.release()

	d, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	if d.Empty() {
		return f.remove()
	}
	d.UpdatedAt = time.Now().UTC()
	return f.write(d)
}

// Clear removes the draft.
func (f *File) Clear() error {
	return f.Update(func(d *Draft) error {
		d.Pending = settings.Options{}
		return nil
	})
}

func (f *File) write(d *Draft) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".draft-*.json")
	if err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

func (f *File) remove() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove draft: %w", err)
	}
	return nil
}
