package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/research-copilot/copilot/pkg/credentials"
	"github.com/research-copilot/copilot/pkg/session"
)

type stubVerifier struct{ user *session.GoogleUser }

func (v *stubVerifier) Verify(ctx context.Context, rawToken string) (*session.GoogleUser, error) {
	return v.user, nil
}

type recordingTokenSaver struct {
	saved map[string]*credentials.Token
}

func (s *recordingTokenSaver) Save(ctx context.Context, userID string, token *credentials.Token) error {
	if s.saved == nil {
		s.saved = make(map[string]*credentials.Token)
	}
	s.saved[userID] = token
	return nil
}

func newGoogleTestEnv(t *testing.T) (*testEnv, *recordingTokenSaver) {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "ya29.access",
			"refresh_token": "1//refresh",
			"expires_in": 3600,
			"id_token": "header.payload.signature",
			"token_type": "Bearer"
		}`))
	}))
	t.Cleanup(tokenServer.Close)

	env := newTestEnv(t)
	saver := &recordingTokenSaver{}

	env.server.deps.GoogleOAuth = &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:5000/auth/callback",
		Scopes:       []string{"openid"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenServer.URL + "/auth",
			TokenURL: tokenServer.URL + "/token",
		},
	}
	env.server.deps.Verifier = &stubVerifier{
		user: &session.GoogleUser{Sub: "123", Email: "user@example.com", Name: "User"},
	}
	env.server.deps.Tokens = saver
	env.handler = env.server.Router()

	return env, saver
}

func TestGoogleLoginRedirect(t *testing.T) {
	env, _ := newGoogleTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := env.do(t, "GET", "/login", nil, cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect URL: %v", err)
	}
	q := location.Query()
	if q.Get("access_type") != "offline" {
		t.Error("consent URL missing offline access")
	}
	if q.Get("prompt") != "consent" && q.Get("approval_prompt") != "force" {
		t.Error("consent URL missing forced consent")
	}
	if q.Get("state") == "" {
		t.Error("consent URL missing state nonce")
	}
}

func TestGoogleCallback(t *testing.T) {
	env, saver := newGoogleTestEnv(t)

	sess, err := env.sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sess.SetOAuthState("google", "nonce-1")
	cookie := &http.Cookie{Name: "session_id", Value: sess.ID()}

	rec := env.do(t, "GET", "/auth/callback?state=nonce-1&code=auth-code", nil, cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}

	user := sess.GoogleUser()
	if user == nil || user.Email != "user@example.com" {
		t.Fatalf("session missing Google identity: %+v", user)
	}

	saved := saver.saved["user@example.com"]
	if saved == nil {
		t.Fatal("tokens were not persisted")
	}
	if saved.AccessToken != "ya29.access" || saved.RefreshToken != "1//refresh" {
		t.Errorf("unexpected persisted token: %+v", saved)
	}
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	env, saver := newGoogleTestEnv(t)

	sess, err := env.sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sess.SetOAuthState("google", "nonce-1")
	cookie := &http.Cookie{Name: "session_id", Value: sess.ID()}

	rec := env.do(t, "GET", "/auth/callback?state=wrong&code=auth-code", nil, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if sess.GoogleUser() != nil {
		t.Error("identity must not be set on state mismatch")
	}
	if len(saver.saved) != 0 {
		t.Error("tokens must not be persisted on state mismatch")
	}
}

func TestGoogleCallbackStateIsSingleUse(t *testing.T) {
	env, _ := newGoogleTestEnv(t)

	sess, err := env.sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sess.SetOAuthState("google", "nonce-1")
	cookie := &http.Cookie{Name: "session_id", Value: sess.ID()}

	if rec := env.do(t, "GET", "/auth/callback?state=nonce-1&code=auth-code", nil, cookie); rec.Code != http.StatusFound {
		t.Fatalf("first callback failed: %d", rec.Code)
	}
	if rec := env.do(t, "GET", "/auth/callback?state=nonce-1&code=auth-code", nil, cookie); rec.Code != http.StatusBadRequest {
		t.Errorf("replayed state must be rejected, got %d", rec.Code)
	}
}

func TestGitHubLoginRedirect(t *testing.T) {
	env := newTestEnv(t)
	env.server.deps.GitHubOAuth = &oauth2.Config{
		ClientID:     "gh-client",
		ClientSecret: "gh-secret",
		RedirectURL:  "http://localhost:5000/github/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://github.test/authorize",
			TokenURL: "https://github.test/token",
		},
	}
	env.handler = env.server.Router()

	cookie := env.loggedInSession(t)
	rec := env.do(t, "GET", "/login/github", nil, cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Location"), "https://github.test/authorize") {
		t.Errorf("unexpected redirect: %q", rec.Header().Get("Location"))
	}
}
