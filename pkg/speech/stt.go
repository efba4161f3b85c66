// Package speech provides one-shot speech-to-text and text-to-speech
// clients for the voice endpoints.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/httpclient"
)

// Transcriber converts recorded audio into text.
type Transcriber struct {
	config *config.STTConfig

	once       sync.Once
	httpClient *httpclient.Client
}

// NewTranscriber creates a transcriber against a Whisper-compatible
// transcription API. The HTTP client is built lazily on first use so
// that constructing the server does not pay for an unused backend.
func NewTranscriber(cfg *config.STTConfig) *Transcriber {
	return &Transcriber{config: cfg}
}

func (t *Transcriber) client() *httpclient.Client {
	t.once.Do(func() {
		t.httpClient = httpclient.New()
	})
	return t.httpClient
}

// Transcribe sends one audio recording and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	if err := writer.WriteField("model", t.config.Model); err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}

	url := strings.TrimRight(t.config.Host, "/") + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.config.APIKey)
	}

	resp, err := t.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, string(payload))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return strings.TrimSpace(result.Text), nil
}
