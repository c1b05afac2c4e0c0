package serverdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcus/optsync/internal/settings"
)

// OptionChange is one entry of the option audit trail.
type OptionChange struct {
	ID        string
	Name      string
	OldValue  *settings.Value // nil when the option was unset
	NewValue  settings.Value
	UserID    string
	ChangedAt time.Time
}

// GetOptions returns every stored option value.
func (db *ServerDB) GetOptions() (settings.Options, error) {
	rows, err := db.conn.Query(`SELECT name, value FROM options ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("get options: %w", err)
	}
	defer rows.Close()

	opts := settings.Options{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decode option %s: %w", name, err)
		}
		opts[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get options: iterate: %w", err)
	}
	return opts, nil
}

// GetOption returns the stored value of name, or nil if unset.
func (db *ServerDB) GetOption(name string) (*settings.Value, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM options WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get option: %w", err)
	}
	v, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("decode option %s: %w", name, err)
	}
	return &v, nil
}

// SetOptions writes all values in one transaction and records a change
// entry for each value that differs from what was stored. Either every
// value is written or none is.
func (db *ServerDB) SetOptions(opts settings.Options, userID string) ([]*OptionChange, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var changes []*OptionChange
	for _, name := range opts.Names() {
		v := opts[name]
		newRaw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode option %s: %w", name, err)
		}

		var oldRaw sql.NullString
		err = tx.QueryRow(`SELECT value FROM options WHERE name = ?`, name).Scan(&oldRaw)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("read option %s: %w", name, err)
		}
		if oldRaw.Valid && oldRaw.String == string(newRaw) {
			continue
		}

		if _, err := tx.Exec(
			`INSERT INTO options (name, value, updated_by, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_by = excluded.updated_by, updated_at = excluded.updated_at`,
			name, string(newRaw), userID, now,
		); err != nil {
			return nil, fmt.Errorf("write option %s: %w", name, err)
		}

		ch := &OptionChange{
			ID:        uuid.NewString(),
			Name:      name,
			NewValue:  v,
			UserID:    userID,
			ChangedAt: now,
		}
		var old any
		if oldRaw.Valid {
			old = oldRaw.String
			ov, err := decodeValue(oldRaw.String)
			if err != nil {
				return nil, fmt.Errorf("decode option %s: %w", name, err)
			}
			ch.OldValue = &ov
		}
		if _, err := tx.Exec(
			`INSERT INTO option_changes (id, name, old_value, new_value, user_id, changed_at) VALUES (?, ?, ?, ?, ?, ?)`,
			ch.ID, name, old, string(newRaw), userID, now,
		); err != nil {
			return nil, fmt.Errorf("record change %s: %w", name, err)
		}
		changes = append(changes, ch)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return changes, nil
}

// ChangeQuery filters ListOptionChanges. Zero fields match everything.
type ChangeQuery struct {
	Name  string
	Since time.Time
	Limit int // default 50
}

// ListOptionChanges returns the most recent matching changes, newest first.
func (db *ServerDB) ListOptionChanges(q ChangeQuery) ([]*OptionChange, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, name, old_value, new_value, user_id, changed_at FROM option_changes`
	var where []string
	args := []any{}
	if q.Name != "" {
		where = append(where, `name = ?`)
		args = append(args, q.Name)
	}
	if !q.Since.IsZero() {
		where = append(where, `changed_at >= ?`)
		args = append(args, q.Since.UTC())
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY changed_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list option changes: %w", err)
	}
	defer rows.Close()

	var changes []*OptionChange
	for rows.Next() {
		ch := &OptionChange{}
		var oldRaw sql.NullString
		var newRaw string
		if err := rows.Scan(&ch.ID, &ch.Name, &oldRaw, &newRaw, &ch.UserID, &ch.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan option change: %w", err)
		}
		if ch.NewValue, err = decodeValue(newRaw); err != nil {
			return nil, fmt.Errorf("decode change %s: %w", ch.ID, err)
		}
		if oldRaw.Valid {
			ov, err := decodeValue(oldRaw.String)
			if err != nil {
				return nil, fmt.Errorf("decode change %s: %w", ch.ID, err)
			}
			ch.OldValue = &ov
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list option changes: iterate: %w", err)
	}
	return changes, nil
}

func decodeValue(raw string) (settings.Value, error) {
	var v settings.Value
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}
