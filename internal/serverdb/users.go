package serverdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is someone allowed to hold API keys.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const userColumns = `id, email, created_at, updated_at`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers email, stored lowercased. Emails are unique.
func (db *ServerDB) CreateUser(email string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	now := time.Now().UTC()
	u := &User{ID: newID("u_"), Email: email, CreatedAt: now, UpdatedAt: now}
	if _, err := db.conn.Exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up case-insensitively. A missing user is
// (nil, nil).
func (db *ServerDB) GetUserByEmail(email string) (*User, error) {
	u, err := scanUser(db.conn.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = ?`, normalizeEmail(email),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	return u, nil
}

// ListUsers returns every user, oldest first.
func (db *ServerDB) ListUsers() ([]*User, error) {
	rows, err := db.conn.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*User, error) {
	u := &User{}
	if err := r.Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
