// Package serverdb is the server's SQLite store: users, their API keys, the
// current option values and the history of changes to them.
package serverdb

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ServerDB wraps the server database connection.
type ServerDB struct {
	conn *sql.DB
}

// pragmas applied on open; required ones abort Open when they fail.
var pragmas = []struct {
	stmt     string
	required bool
}{
	{"PRAGMA journal_mode=WAL", true},
	{"PRAGMA busy_timeout=5000", true},
	{"PRAGMA synchronous=NORMAL", false},
	{"PRAGMA foreign_keys=ON", false},
}

// Open opens (creating if needed) the database at dbPath and brings its
// schema up to ServerSchemaVersion. ":memory:" opens a private in-memory
// database.
func Open(dbPath string) (*ServerDB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; also keeps ":memory:" to a single database.
	conn.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil && p.required {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", p.stmt, err)
		}
	}
	if _, err := conn.Exec(serverSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	db := &ServerDB{conn: conn}
	if _, err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Ping checks the database connection is alive.
func (db *ServerDB) Ping() error {
	return db.conn.Ping()
}

// Close checkpoints the WAL and closes the connection.
func (db *ServerDB) Close() error {
	db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return db.conn.Close()
}

// RunMigrations applies every migration newer than the stored schema
// version and returns how many ran. Each migration commits together with
// its version bump.
func (db *ServerDB) RunMigrations() (int, error) {
	from := db.getSchemaVersion()
	if from == 0 {
		// serverSchema already holds everything up to version 1.
		from = 1
	}

	applied := 0
	for _, m := range Migrations {
		if m.Version <= from {
			continue
		}
		if err := db.migrate(m); err != nil {
			return applied, fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		applied++
	}
	if db.getSchemaVersion() < ServerSchemaVersion {
		if err := setSchemaVersion(db.conn, ServerSchemaVersion); err != nil {
			return applied, fmt.Errorf("record schema version: %w", err)
		}
	}
	return applied, nil
}

func (db *ServerDB) migrate(m Migration) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if err := setSchemaVersion(tx, m.Version); err != nil {
		return err
	}
	return tx.Commit()
}

// getSchemaVersion returns the recorded schema version, 0 for a new database.
func (db *ServerDB) getSchemaVersion() int {
	var raw string
	if err := db.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&raw); err != nil {
		return 0
	}
	v, _ := strconv.Atoi(raw)
	return v
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setSchemaVersion(e execer, v int) error {
	_, err := e.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`, strconv.Itoa(v))
	return err
}

// newID returns prefix followed by 16 hex chars of a random UUID.
func newID(prefix string) string {
	u := uuid.New()
	return prefix + hex.EncodeToString(u[:8])
}
