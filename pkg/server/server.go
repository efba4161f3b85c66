// Package server exposes the copilot over HTTP: the conversational
// /ask endpoint, document uploads, speech endpoints, the two OAuth
// flows and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/oauth2"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/credentials"
	"github.com/research-copilot/copilot/pkg/httpclient"
	"github.com/research-copilot/copilot/pkg/session"
	"github.com/research-copilot/copilot/pkg/uploads"
)

// Asker runs one conversational turn.
type Asker interface {
	Ask(ctx context.Context, sessionID, query string) (string, error)
}

// SpeechToText transcribes one audio recording.
type SpeechToText interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// TextToSpeech renders text as MP3 audio.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// IdentityVerifier validates a Google ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*session.GoogleUser, error)
}

// HistoryClearer drops a session's conversation transcript.
type HistoryClearer interface {
	Clear(sessionID string)
}

// TokenSaver persists a user's Google tokens after login.
type TokenSaver interface {
	Save(ctx context.Context, userID string, token *credentials.Token) error
}

// Dependencies are the collaborators the server routes requests to.
type Dependencies struct {
	Sessions    session.Service
	Agent       Asker
	History     HistoryClearer
	Uploads     *uploads.Store
	Transcriber SpeechToText
	Synthesizer TextToSpeech

	// Google login. Verifier and Tokens may be nil only when
	// GoogleOAuth is nil.
	GoogleOAuth *oauth2.Config
	Verifier    IdentityVerifier
	Tokens      TokenSaver

	// GitHub login.
	GitHubOAuth *oauth2.Config
	HTTPClient  *httpclient.Client

	// Metrics endpoint handler; nil disables /metrics.
	Metrics http.Handler
}

// Server is the copilot HTTP server.
type Server struct {
	config *config.ServerConfig
	deps   Dependencies

	httpServer *http.Server
}

// New wires the router. All collaborators are injected; the server
// owns only HTTP concerns.
func New(cfg *config.ServerConfig, deps Dependencies) (*Server, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}
	if deps.Agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if deps.Uploads == nil {
		return nil, fmt.Errorf("upload store is required")
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = httpclient.New()
	}

	s := &Server{config: cfg, deps: deps}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{s.config.FrontendURL}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Post("/ask", s.handleAsk)
		r.Post("/upload", s.handleUpload)
		r.Post("/stt", s.handleSTT)
		r.Post("/tts", s.handleTTS)
		r.Get("/me", s.handleMe)

		r.Get("/login", s.handleGoogleLogin)
		r.Get("/auth/callback", s.handleGoogleCallback)
		r.Get("/login/github", s.handleGitHubLogin)
		r.Get("/github/callback", s.handleGitHubCallback)

		r.Get("/logout", s.handleLogout)
		r.Post("/logout", s.handleLogout)
	})

	r.Get("/uploads/{filename}", s.handleServeUpload)

	if s.deps.Metrics != nil {
		r.Get("/metrics", s.deps.Metrics.ServeHTTP)
	}

	if s.config.StaticDir != "" {
		s.mountStatic(r)
	}

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// mountStatic serves a built frontend with index.html fallback for
// client-side routes.
func (s *Server) mountStatic(r chi.Router) {
	dir := s.config.StaticDir
	fileServer := http.FileServer(http.Dir(dir))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+req.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, req)
			return
		}
		http.ServeFile(w, req, filepath.Join(dir, "index.html"))
	})
}
