// Package session provides cookie-keyed session management.
//
// A session holds everything tied to one browser: the signed-in Google
// identity, the optional GitHub identity, and the currently active
// uploaded document.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// GoogleUser is the identity extracted from a Google ID token.
type GoogleUser struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// GitHubUser is the identity returned by the GitHub user API.
type GitHubUser struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session is one browser session. All accessors are safe for
// concurrent use.
type Session struct {
	id        string
	createdAt time.Time

	mu              sync.RWMutex
	googleUser      *GoogleUser
	githubUser      *GitHubUser
	githubToken     string
	currentDocument string
	oauthStates     map[string]string // provider -> pending state nonce
	lastUpdateTime  time.Time
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastUpdateTime returns when the session was last modified.
func (s *Session) LastUpdateTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdateTime
}

// GoogleUser returns the signed-in Google identity, or nil.
func (s *Session) GoogleUser() *GoogleUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.googleUser
}

// SetGoogleUser records the Google identity after a completed login.
func (s *Session) SetGoogleUser(user *GoogleUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.googleUser = user
	s.lastUpdateTime = time.Now()
}

// GitHubUser returns the connected GitHub identity, or nil.
func (s *Session) GitHubUser() *GitHubUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.githubUser
}

// GitHubToken returns the GitHub access token, or "" when GitHub is
// not connected.
func (s *Session) GitHubToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.githubToken
}

// SetGitHub records the GitHub identity and its access token.
func (s *Session) SetGitHub(user *GitHubUser, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.githubUser = user
	s.githubToken = token
	s.lastUpdateTime = time.Now()
}

// CurrentDocument returns the active uploaded document name, or "".
func (s *Session) CurrentDocument() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDocument
}

// SetCurrentDocument records the most recently uploaded document.
func (s *Session) SetCurrentDocument(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDocument = name
	s.lastUpdateTime = time.Now()
}

// SetOAuthState stores the pending state nonce for an OAuth flow.
func (s *Session) SetOAuthState(provider, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oauthStates[provider] = state
	s.lastUpdateTime = time.Now()
}

// ConsumeOAuthState validates and clears the pending state nonce.
// Returns false on mismatch or when no flow is pending.
func (s *Session) ConsumeOAuthState(provider, state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.oauthStates[provider]
	delete(s.oauthStates, provider)
	return ok && state != "" && pending == state
}

// Service manages session lifecycle.
type Service interface {
	// Create creates a new session with a generated identifier.
	Create(ctx context.Context) (*Session, error)

	// Get retrieves an existing session.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes a session. Deleting an unknown session is a no-op.
	Delete(ctx context.Context, sessionID string) error
}

// InMemoryService returns an in-memory session service.
func InMemoryService() Service {
	return &inMemoryService{
		sessions: make(map[string]*Session),
	}
}

type inMemoryService struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func (s *inMemoryService) Create(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &Session{
		id:             uuid.NewString(),
		createdAt:      now,
		oauthStates:    make(map[string]string),
		lastUpdateTime: now,
	}
	s.sessions[session.id] = session

	return session, nil
}

func (s *inMemoryService) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *inMemoryService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

var _ Service = (*inMemoryService)(nil)
