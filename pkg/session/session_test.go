package session

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := InMemoryService()

	sess, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID() == "" {
		t.Error("expected non-empty session ID")
	}

	got, err := svc.Get(ctx, sess.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID() != sess.ID() {
		t.Errorf("expected session %s, got %s", sess.ID(), got.ID())
	}

	if err := svc.Delete(ctx, sess.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, sess.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}

	// Deleting an unknown session is a no-op.
	if err := svc.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of unknown session should not fail: %v", err)
	}
}

func TestSessionIdentities(t *testing.T) {
	ctx := context.Background()
	svc := InMemoryService()
	sess, _ := svc.Create(ctx)

	if sess.GoogleUser() != nil {
		t.Error("new session should have no Google identity")
	}
	if sess.GitHubToken() != "" {
		t.Error("new session should have no GitHub token")
	}

	sess.SetGoogleUser(&GoogleUser{Sub: "123", Email: "ada@example.com", Name: "Ada"})
	if user := sess.GoogleUser(); user == nil || user.Email != "ada@example.com" {
		t.Errorf("unexpected Google identity: %+v", sess.GoogleUser())
	}

	sess.SetGitHub(&GitHubUser{Login: "ada", ID: 42}, "gho_token")
	if sess.GitHubToken() != "gho_token" {
		t.Errorf("expected GitHub token to round-trip, got %q", sess.GitHubToken())
	}
	if sess.GitHubUser().Login != "ada" {
		t.Errorf("unexpected GitHub identity: %+v", sess.GitHubUser())
	}
}

func TestSessionCurrentDocument(t *testing.T) {
	ctx := context.Background()
	svc := InMemoryService()
	sess, _ := svc.Create(ctx)

	if sess.CurrentDocument() != "" {
		t.Error("new session should have no current document")
	}

	sess.SetCurrentDocument("report.pdf")
	if sess.CurrentDocument() != "report.pdf" {
		t.Errorf("expected report.pdf, got %q", sess.CurrentDocument())
	}

	// Newer uploads replace the active document.
	sess.SetCurrentDocument("notes.pdf")
	if sess.CurrentDocument() != "notes.pdf" {
		t.Errorf("expected notes.pdf, got %q", sess.CurrentDocument())
	}
}

func TestConsumeOAuthState(t *testing.T) {
	ctx := context.Background()
	svc := InMemoryService()
	sess, _ := svc.Create(ctx)

	tests := []struct {
		name    string
		set     string
		consume string
		want    bool
	}{
		{"matching state", "abc", "abc", true},
		{"mismatched state", "abc", "xyz", false},
		{"empty state", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess.SetOAuthState("google", tt.set)
			if got := sess.ConsumeOAuthState("google", tt.consume); got != tt.want {
				t.Errorf("ConsumeOAuthState() = %v, want %v", got, tt.want)
			}
		})
	}

	// State is single-use.
	sess.SetOAuthState("github", "once")
	sess.ConsumeOAuthState("github", "once")
	if sess.ConsumeOAuthState("github", "once") {
		t.Error("state should not be reusable")
	}
}
