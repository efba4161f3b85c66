package server

import (
	"log/slog"
	"net/http"

	"github.com/research-copilot/copilot/pkg/auth"
	"github.com/research-copilot/copilot/pkg/credentials"
)

const (
	providerGoogle = "google"
	providerGitHub = "github"
)

// handleGoogleLogin starts the Google authorization-code flow.
// Offline access with forced consent so every login yields a refresh
// token.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.GoogleOAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google login is not configured")
		return
	}

	sess := sessionFromContext(r.Context())

	state, err := auth.RandomState()
	if err != nil {
		slog.Error("failed to generate OAuth state", "error", err)
		writeError(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	sess.SetOAuthState(providerGoogle, state)

	http.Redirect(w, r, auth.GoogleAuthCodeURL(s.deps.GoogleOAuth, state), http.StatusFound)
}

// handleGoogleCallback completes the Google flow: validates state,
// exchanges the code, verifies the ID token and persists the
// encrypted token bundle keyed by the account email.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.GoogleOAuth == nil || s.deps.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Google login is not configured")
		return
	}

	sess := sessionFromContext(r.Context())

	if !sess.ConsumeOAuthState(providerGoogle, r.URL.Query().Get("state")) {
		writeError(w, http.StatusBadRequest, "invalid OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := s.deps.GoogleOAuth.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("Google code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		writeError(w, http.StatusBadGateway, "authorization response missing id_token")
		return
	}

	user, err := s.deps.Verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		slog.Error("ID token verification failed", "error", err)
		writeError(w, http.StatusUnauthorized, "identity verification failed")
		return
	}

	if s.deps.Tokens != nil && user.Email != "" {
		record := &credentials.Token{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		}
		if err := s.deps.Tokens.Save(r.Context(), user.Email, record); err != nil {
			slog.Error("failed to persist Google tokens", "email", user.Email, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store credentials")
			return
		}
	}

	sess.SetGoogleUser(user)
	slog.Info("Google login completed", "email", user.Email)

	http.Redirect(w, r, s.config.FrontendURL, http.StatusFound)
}

// handleGitHubLogin starts the GitHub authorization-code flow.
func (s *Server) handleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.GitHubOAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "GitHub login is not configured")
		return
	}

	sess := sessionFromContext(r.Context())

	state, err := auth.RandomState()
	if err != nil {
		slog.Error("failed to generate OAuth state", "error", err)
		writeError(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	sess.SetOAuthState(providerGitHub, state)

	http.Redirect(w, r, s.deps.GitHubOAuth.AuthCodeURL(state), http.StatusFound)
}

// handleGitHubCallback completes the GitHub flow and binds the
// identity plus access token to the session.
func (s *Server) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.GitHubOAuth == nil {
		writeError(w, http.StatusServiceUnavailable, "GitHub login is not configured")
		return
	}

	sess := sessionFromContext(r.Context())

	if !sess.ConsumeOAuthState(providerGitHub, r.URL.Query().Get("state")) {
		writeError(w, http.StatusBadRequest, "invalid OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := s.deps.GitHubOAuth.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("GitHub code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	user, err := auth.FetchGitHubUser(r.Context(), s.deps.HTTPClient, token.AccessToken)
	if err != nil {
		slog.Error("GitHub user fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to resolve GitHub identity")
		return
	}

	sess.SetGitHub(user, token.AccessToken)
	slog.Info("GitHub login completed", "login", user.Login)

	http.Redirect(w, r, s.config.FrontendURL, http.StatusFound)
}
