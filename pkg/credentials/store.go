// Package credentials persists Google OAuth tokens across restarts.
//
// Tokens are encrypted at rest with Fernet and stored in SQLite keyed
// by the Google account identifier, so a returning user keeps working
// Google integrations without logging in again.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	_ "github.com/mattn/go-sqlite3"

	"github.com/research-copilot/copilot/pkg/config"
)

var (
	// ErrNotAuthenticated is returned when no Google credentials exist
	// for the user.
	ErrNotAuthenticated = errors.New("user is not authenticated with Google")

	// ErrRefreshDenied is returned when Google rejects a refresh
	// attempt, typically because access was revoked.
	ErrRefreshDenied = errors.New("token refresh denied")
)

// Token is the persisted Google credential bundle.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Valid reports whether the access token is still usable, with a
// safety margin for clock skew and request latency.
func (t *Token) Valid() bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return time.Until(t.Expiry) > 30*time.Second
}

const schema = `
CREATE TABLE IF NOT EXISTS user_tokens (
	user_id    TEXT PRIMARY KEY,
	token      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Store is the SQLite-backed token store.
type Store struct {
	db   *sql.DB
	keys []*fernet.Key
}

// NewStore opens (and if needed initializes) the token database.
func NewStore(cfg *config.CredentialsConfig) (*Store, error) {
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("credentials encryption key is required")
	}

	keys, err := fernet.DecodeKeys(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token database: %w", err)
	}

	return &Store{db: db, keys: keys}, nil
}

// Save encrypts and upserts the token bundle for a user.
func (s *Store) Save(ctx context.Context, userID string, token *Token) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}

	plaintext, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	ciphertext, err := fernet.EncryptAndSign(plaintext, s.keys[0])
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_tokens (user_id, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at`,
		userID, ciphertext, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

// Load decrypts the token bundle for a user.
// Returns ErrNotAuthenticated when no token is stored.
func (s *Store) Load(ctx context.Context, userID string) (*Token, error) {
	var ciphertext []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM user_tokens WHERE user_id = ?`, userID).Scan(&ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	plaintext := fernet.VerifyAndDecrypt(ciphertext, 0, s.keys)
	if plaintext == nil {
		// Undecryptable rows are as good as absent.
		return nil, ErrNotAuthenticated
	}

	var token Token
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// Delete removes the stored token for a user.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
