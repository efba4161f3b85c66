package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/research-copilot/copilot/pkg/tools"
	"github.com/research-copilot/copilot/pkg/uploads"
)

type askRequest struct {
	Query string `json:"query"`
}

// handleAsk runs one agent turn for the signed-in user.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	googleUser := sess.GoogleUser()
	githubUser := sess.GitHubUser()
	if googleUser == nil && githubUser == nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	inv := &tools.Invocation{
		CurrentDocument: sess.CurrentDocument(),
		SessionID:       sess.ID(),
	}
	if googleUser != nil {
		inv.UserID = googleUser.Email
	}
	if githubUser != nil {
		inv.GitHubToken = sess.GitHubToken()
		inv.GitHubLogin = githubUser.Login
	}

	ctx := tools.ContextWithInvocation(r.Context(), inv)
	answer, err := s.deps.Agent.Ask(ctx, sess.ID(), req.Query)
	if err != nil {
		slog.Error("ask failed", "session_id", sess.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// handleUpload accepts multipart uploads under "files" (multiple) or
// "file" (single). The last saved file becomes the session's current
// document.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := r.ParseMultipartForm(s.deps.Uploads.MaxFileSize()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var headers []*multipart.FileHeader
	if form := r.MultipartForm; form != nil {
		if fs := form.File["files"]; len(fs) > 0 {
			headers = fs
		} else if fs := form.File["file"]; len(fs) > 0 {
			headers = fs
		}
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded (expected form key 'files' or 'file')")
		return
	}

	var saved []string
	for _, header := range headers {
		if header.Filename == "" {
			continue
		}

		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read %s", header.Filename))
			return
		}

		name, err := s.deps.Uploads.Save(file, header.Filename)
		file.Close()
		if errors.Is(err, uploads.ErrDisallowedType) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file type not allowed: %s", header.Filename))
			return
		}
		if err != nil {
			slog.Error("upload failed", "filename", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}

		saved = append(saved, name)
	}

	if len(saved) == 0 {
		writeError(w, http.StatusBadRequest, "no valid files saved")
		return
	}

	sess.SetCurrentDocument(saved[len(saved)-1])

	previews := make([]string, len(saved))
	for i, name := range saved {
		previews[i] = "/uploads/" + name
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  fmt.Sprintf("%d file(s) uploaded successfully", len(saved)),
		"files":    saved,
		"previews": previews,
	})
}

// handleServeUpload serves a stored document for inline preview.
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	path, err := s.deps.Uploads.Path(name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("file not found: %s", name))
		return
	}

	http.ServeFile(w, r, path)
}

// handleSTT transcribes one uploaded audio recording.
func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	if s.deps.Transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "speech-to-text is not configured")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no audio file uploaded (expected form key 'audio')")
		return
	}
	defer file.Close()

	text, err := s.deps.Transcriber.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		slog.Error("transcription failed", "error", err)
		writeError(w, http.StatusInternalServerError, "transcription failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type ttsRequest struct {
	Text string `json:"text"`
}

// handleTTS renders text as MP3 audio.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.deps.Synthesizer == nil {
		writeError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := s.deps.Synthesizer.Synthesize(r.Context(), req.Text)
	if err != nil {
		slog.Error("synthesis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Error("failed to write audio response", "error", err)
	}
}

// handleMe reports the signed-in identities, keyed by provider.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	payload := map[string]interface{}{}
	if user := sess.GoogleUser(); user != nil {
		payload["user"] = user
	}
	if user := sess.GitHubUser(); user != nil {
		payload["github_user"] = user
	}
	if len(payload) == 0 {
		writeError(w, http.StatusUnauthorized, "no user logged in")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleLogout removes the session and expires the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if s.deps.History != nil {
		s.deps.History.Clear(sess.ID())
	}
	if err := s.deps.Sessions.Delete(r.Context(), sess.ID()); err != nil {
		slog.Error("failed to delete session", "session_id", sess.ID(), "error", err)
	}
	s.setSessionCookie(w, "", -1)

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
