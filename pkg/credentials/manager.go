package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

// Manager hands out valid Google access tokens, refreshing and
// re-persisting them transparently when they expire.
type Manager struct {
	store *Store
	oauth *oauth2.Config
}

// NewManager creates a Manager backed by the given store. The oauth2
// config supplies the client credentials used for refresh.
func NewManager(store *Store, oauth *oauth2.Config) *Manager {
	return &Manager{store: store, oauth: oauth}
}

// Store exposes the underlying token store.
func (m *Manager) Store() *Store {
	return m.store
}

// AccessToken returns a usable access token for the user.
//
// A still-valid stored token is returned as is. An expired token is
// refreshed against Google and the new bundle is persisted. Returns
// ErrNotAuthenticated when the user never logged in, and
// ErrRefreshDenied when Google rejects the refresh.
func (m *Manager) AccessToken(ctx context.Context, userID string) (string, error) {
	token, err := m.store.Load(ctx, userID)
	if err != nil {
		return "", err
	}

	if token.Valid() {
		return token.AccessToken, nil
	}

	if token.RefreshToken == "" {
		return "", ErrNotAuthenticated
	}

	refreshed, err := m.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: token.RefreshToken,
	}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			slog.Warn("Google refused token refresh",
				"user_id", userID, "status", retrieveErr.Response.StatusCode)
			return "", fmt.Errorf("%w: %s", ErrRefreshDenied, retrieveErr.ErrorCode)
		}
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	// Google omits the refresh token on refresh responses; keep ours.
	updated := &Token{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		Expiry:       refreshed.Expiry,
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = token.RefreshToken
	}

	if err := m.store.Save(ctx, userID, updated); err != nil {
		slog.Warn("failed to persist refreshed token", "user_id", userID, "error", err)
	}

	return updated.AccessToken, nil
}
