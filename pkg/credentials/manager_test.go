package credentials

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTokenEndpoint(t *testing.T, handler http.HandlerFunc) *oauth2.Config {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint:     oauth2.Endpoint{TokenURL: server.URL},
	}
}

func TestAccessTokenReturnsValidTokenWithoutRefresh(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	oauth := newTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("valid token must not trigger a refresh")
	})

	if err := store.Save(ctx, "user@example.com", &Token{
		AccessToken: "ya29.fresh",
		Expiry:      time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	manager := NewManager(store, oauth)
	token, err := manager.AccessToken(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "ya29.fresh" {
		t.Errorf("unexpected token: %q", token)
	}
}

func TestAccessTokenUnknownUser(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, newTokenEndpoint(t, nil))

	if _, err := manager.AccessToken(context.Background(), "nobody"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAccessTokenExpiredWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Save(ctx, "user@example.com", &Token{
		AccessToken: "ya29.stale",
		Expiry:      time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	manager := NewManager(store, newTokenEndpoint(t, nil))
	if _, err := manager.AccessToken(ctx, "user@example.com"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAccessTokenRefreshesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	oauth := newTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("unexpected grant type: %q", got)
		}
		if got := r.Form.Get("refresh_token"); got != "1//refresh" {
			t.Errorf("unexpected refresh token: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "ya29.renewed", "expires_in": 3600, "token_type": "Bearer"}`))
	})

	if err := store.Save(ctx, "user@example.com", &Token{
		AccessToken:  "ya29.stale",
		RefreshToken: "1//refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	manager := NewManager(store, oauth)
	token, err := manager.AccessToken(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "ya29.renewed" {
		t.Errorf("unexpected token: %q", token)
	}

	// Google omits the refresh token on refresh; ours must survive.
	stored, err := store.Load(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored.AccessToken != "ya29.renewed" {
		t.Errorf("refreshed token not persisted: %+v", stored)
	}
	if stored.RefreshToken != "1//refresh" {
		t.Errorf("refresh token lost on refresh: %+v", stored)
	}
}

func TestAccessTokenRefreshDenied(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	oauth := newTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "Token has been revoked."}`))
	})

	if err := store.Save(ctx, "user@example.com", &Token{
		AccessToken:  "ya29.stale",
		RefreshToken: "1//revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	manager := NewManager(store, oauth)
	if _, err := manager.AccessToken(ctx, "user@example.com"); !errors.Is(err, ErrRefreshDenied) {
		t.Errorf("expected ErrRefreshDenied, got %v", err)
	}
}
