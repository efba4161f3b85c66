package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/session"
	"github.com/research-copilot/copilot/pkg/tools"
	"github.com/research-copilot/copilot/pkg/uploads"
)

type stubAgent struct {
	answer      string
	invocations []*tools.Invocation
}

func (a *stubAgent) Ask(ctx context.Context, sessionID, query string) (string, error) {
	a.invocations = append(a.invocations, tools.InvocationFromContext(ctx))
	return a.answer, nil
}

type stubTranscriber struct{ text string }

func (s *stubTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return s.text, nil
}

type stubSynthesizer struct{ audio []byte }

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.audio, nil
}

type recordingClearer struct{ cleared []string }

func (r *recordingClearer) Clear(sessionID string) {
	r.cleared = append(r.cleared, sessionID)
}

type testEnv struct {
	server   *Server
	sessions session.Service
	agent    *stubAgent
	clearer  *recordingClearer
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	uploadCfg := &config.UploadsConfig{Dir: t.TempDir()}
	uploadCfg.SetDefaults()
	store, err := uploads.NewStore(uploadCfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	serverCfg := &config.ServerConfig{}
	serverCfg.SetDefaults()

	sessions := session.InMemoryService()
	agent := &stubAgent{answer: "hello there"}
	clearer := &recordingClearer{}

	srv, err := New(serverCfg, Dependencies{
		Sessions:    sessions,
		Agent:       agent,
		History:     clearer,
		Uploads:     store,
		Transcriber: &stubTranscriber{text: "spoken words"},
		Synthesizer: &stubSynthesizer{audio: []byte("mp3data")},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return &testEnv{
		server:   srv,
		sessions: sessions,
		agent:    agent,
		clearer:  clearer,
		handler:  srv.Router(),
	}
}

// loggedInSession creates a session with a Google identity and returns
// its cookie.
func (e *testEnv) loggedInSession(t *testing.T) *http.Cookie {
	t.Helper()

	sess, err := e.sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sess.SetGoogleUser(&session.GoogleUser{Sub: "123", Email: "user@example.com", Name: "User"})

	return &http.Cookie{Name: "session_id", Value: sess.ID()}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestAskRequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := env.do(t, "POST", "/ask", strings.NewReader(`{"query": "  "}`), cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAskRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/ask", strings.NewReader(`{"query": "hi"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAskReturnsAnswerWithInvocation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := env.do(t, "POST", "/ask", strings.NewReader(`{"query": "what's up"}`), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeJSON(t, rec)["answer"]; got != "hello there" {
		t.Errorf("unexpected answer: %v", got)
	}

	if len(env.agent.invocations) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(env.agent.invocations))
	}
	inv := env.agent.invocations[0]
	if inv == nil || inv.UserID != "user@example.com" {
		t.Errorf("invocation missing the Google identity: %+v", inv)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := env.do(t, "POST", "/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rec.Code)
	}
	if len(env.clearer.cleared) != 1 {
		t.Errorf("expected conversation history cleared once, got %d", len(env.clearer.cleared))
	}

	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("logout must expire the session cookie")
	}

	// The old cookie now resolves to a fresh anonymous session.
	rec = env.do(t, "POST", "/ask", strings.NewReader(`{"query": "hi"}`), cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ask after logout: expected 401, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func uploadFile(t *testing.T, env *testEnv, cookie *http.Cookie, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndServe(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := uploadFile(t, env, cookie, "file", "notes.txt", "some notes")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	files, _ := payload["files"].([]interface{})
	if len(files) != 1 || files[0] != "notes.txt" {
		t.Fatalf("unexpected files: %v", payload["files"])
	}
	previews, _ := payload["previews"].([]interface{})
	if len(previews) != 1 || previews[0] != "/uploads/notes.txt" {
		t.Errorf("unexpected previews: %v", payload["previews"])
	}

	rec = env.do(t, "GET", "/uploads/notes.txt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve failed: %d", rec.Code)
	}
	if rec.Body.String() != "some notes" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestUploadCollisionSuffixing(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	first := uploadFile(t, env, cookie, "files", "report.pdf", "v1")
	second := uploadFile(t, env, cookie, "files", "report.pdf", "v2")
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("uploads failed: %d, %d", first.Code, second.Code)
	}

	files, _ := decodeJSON(t, second)["files"].([]interface{})
	if len(files) != 1 || files[0] != "report_1.pdf" {
		t.Fatalf("expected report_1.pdf, got %v", files)
	}

	for _, name := range []string{"report.pdf", "report_1.pdf"} {
		if rec := env.do(t, "GET", "/uploads/"+name, nil); rec.Code != http.StatusOK {
			t.Errorf("stored file %s not retrievable: %d", name, rec.Code)
		}
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := uploadFile(t, env, cookie, "file", "malware.exe", "nope")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUploadSetsCurrentDocument(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	uploadFile(t, env, cookie, "file", "brief.pdf", "content")

	rec := env.do(t, "POST", "/ask", strings.NewReader(`{"query": "hi"}`), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("ask failed: %d", rec.Code)
	}
	if env.agent.invocations[0].CurrentDocument != "brief.pdf" {
		t.Errorf("current document not propagated: %+v", env.agent.invocations[0])
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /me: expected 401, got %d", rec.Code)
	}

	cookie := env.loggedInSession(t)
	rec = env.do(t, "GET", "/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("/me failed: %d", rec.Code)
	}
	payload := decodeJSON(t, rec)
	user, _ := payload["user"].(map[string]interface{})
	if user["email"] != "user@example.com" {
		t.Errorf("unexpected identity: %v", payload)
	}
	if _, ok := payload["github_user"]; ok {
		t.Error("github_user must be absent when GitHub is not connected")
	}
}

func TestSTT(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	body, contentType := multipartBody(t, "audio", "clip.webm", "audio bytes")
	req := httptest.NewRequest("POST", "/stt", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stt failed: %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeJSON(t, rec)["text"]; got != "spoken words" {
		t.Errorf("unexpected text: %v", got)
	}
}

func TestTTS(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loggedInSession(t)

	rec := env.do(t, "POST", "/tts", strings.NewReader(`{"text": "read this"}`), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("tts failed: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("unexpected content type: %q", got)
	}
	if rec.Body.String() != "mp3data" {
		t.Errorf("unexpected audio: %q", rec.Body.String())
	}

	rec = env.do(t, "POST", "/tts", strings.NewReader(`{"text": ""}`), cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty text: expected 400, got %d", rec.Code)
	}
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/me", nil)
	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			issued = c
		}
	}
	if issued == nil {
		t.Fatal("first request must set a session cookie")
	}

	rec = env.do(t, "GET", "/me", nil, &http.Cookie{Name: "session_id", Value: issued.Value})
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			t.Error("existing session must not be reissued")
		}
	}
}

func TestGoogleLoginNotConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/login", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
