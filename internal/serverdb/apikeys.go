package serverdb

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// apiKeyPrefix marks optsync keys so they are recognisable in config files
// and secret scanners.
const apiKeyPrefix = "os_live_"

// DefaultCapabilities is granted to keys created without explicit capabilities.
const DefaultCapabilities = "settings:view"

// ErrKeyNotFound is returned when revoking a key the user does not own.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey is a stored key. The plaintext secret is never stored; only its
// sha256 and the first characters (KeyPrefix) for display.
type APIKey struct {
	ID           string
	UserID       string
	KeyPrefix    string
	Name         string
	Capabilities string // comma-separated
	ExpiresAt    *time.Time
	LastUsedAt   *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the key's expiry has passed at now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

const apiKeyColumns = `id, user_id, key_prefix, name, capabilities, expires_at, last_used_at, created_at`

func hashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey creates a key for userID and returns its plaintext, which
// is shown once, with the stored record. An empty capabilities string gets
// DefaultCapabilities; a nil expiresAt never expires.
func (db *ServerDB) GenerateAPIKey(userID, name, capabilities string, expiresAt *time.Time) (string, *APIKey, error) {
	if capabilities == "" {
		capabilities = DefaultCapabilities
	}

	var one int
	switch err := db.conn.QueryRow(`SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil, fmt.Errorf("user not found: %s", userID)
	case err != nil:
		return "", nil, fmt.Errorf("check user: %w", err)
	}

	secret := rand.Text()
	plaintext := apiKeyPrefix + secret
	ak := &APIKey{
		ID:           newID("ak_"),
		UserID:       userID,
		KeyPrefix:    secret[:8],
		Name:         name,
		Capabilities: capabilities,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := db.conn.Exec(
		`INSERT INTO api_keys (id, user_id, key_hash, key_prefix, name, capabilities, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ak.ID, ak.UserID, hashKey(plaintext), ak.KeyPrefix, ak.Name, ak.Capabilities, ak.ExpiresAt, ak.CreatedAt,
	); err != nil {
		return "", nil, fmt.Errorf("insert api key: %w", err)
	}
	return plaintext, ak, nil
}

// VerifyAPIKey resolves a plaintext key to its record and owner and stamps
// last_used_at. Unknown or expired keys return (nil, nil, nil).
func (db *ServerDB) VerifyAPIKey(plaintext string) (*APIKey, *User, error) {
	keyHash := hashKey(plaintext)

	ak := &APIKey{}
	u := &User{}
	err := db.conn.QueryRow(`
		SELECT ak.id, ak.user_id, ak.key_prefix, ak.name, ak.capabilities, ak.expires_at, ak.last_used_at, ak.created_at,
		       u.id, u.email, u.created_at, u.updated_at
		FROM api_keys ak JOIN users u ON u.id = ak.user_id
		WHERE ak.key_hash = ?`, keyHash,
	).Scan(
		&ak.ID, &ak.UserID, &ak.KeyPrefix, &ak.Name, &ak.Capabilities, &ak.ExpiresAt, &ak.LastUsedAt, &ak.CreatedAt,
		&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("api key not found", "key_hash_prefix", keyHash[:8])
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("verify api key: %w", err)
	}

	now := time.Now().UTC()
	if ak.Expired(now) {
		slog.Debug("api key expired", "key_id", ak.ID, "expires_at", ak.ExpiresAt)
		return nil, nil, nil
	}
	if _, err := db.conn.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, now, ak.ID); err != nil {
		slog.Warn("stamp api key use", "key_id", ak.ID, "err", err)
	}
	ak.LastUsedAt = &now
	return ak, u, nil
}

// RevokeAPIKey deletes keyID if it belongs to userID, else ErrKeyNotFound.
func (db *ServerDB) RevokeAPIKey(keyID, userID string) error {
	res, err := db.conn.Exec(`DELETE FROM api_keys WHERE id = ? AND user_id = ?`, keyID, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	return nil
}

// ListAPIKeys returns userID's keys, oldest first, without secrets.
func (db *ServerDB) ListAPIKeys(userID string) ([]*APIKey, error) {
	rows, err := db.conn.Query(
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = ? ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*APIKey
	for rows.Next() {
		ak := &APIKey{}
		if err := rows.Scan(&ak.ID, &ak.UserID, &ak.KeyPrefix, &ak.Name, &ak.Capabilities, &ak.ExpiresAt, &ak.LastUsedAt, &ak.CreatedAt); err != nil {
			return nil, fmt.Errorf("list api keys: %w", err)
		}
		keys = append(keys, ak)
	}
	return keys, rows.Err()
}
