package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/httpclient"
)

// The unofficial translate endpoint rejects queries much beyond this.
const maxTTSChunkLen = 200

var ErrEmptyText = errors.New("no text to synthesize")

// Synthesizer renders text as MP3 audio via the Google Translate TTS
// endpoint. Long text is split into chunks the endpoint accepts and
// the resulting MP3 segments are concatenated; players tolerate
// back-to-back MPEG frames.
type Synthesizer struct {
	config     *config.TTSConfig
	httpClient *httpclient.Client
}

func NewSynthesizer(cfg *config.TTSConfig, client *httpclient.Client) *Synthesizer {
	if client == nil {
		client = httpclient.New()
	}
	return &Synthesizer{config: cfg, httpClient: client}
}

// Synthesize converts text into MP3 bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	var audio []byte
	for _, chunk := range chunkText(text, maxTTSChunkLen) {
		segment, err := s.fetchChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		audio = append(audio, segment...)
	}

	return audio, nil
}

func (s *Synthesizer) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/translate_tts?ie=UTF-8&client=tw-ob&tl=%s&q=%s",
		strings.TrimRight(s.config.Host, "/"),
		url.QueryEscape(s.config.Language),
		url.QueryEscape(chunk))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis endpoint returned %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// chunkText splits text into pieces of at most maxLen runes, breaking
// on word boundaries when possible.
func chunkText(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		// A single word longer than maxLen is split hard.
		for wordLen > maxLen {
			runes := []rune(word)
			chunks = append(chunks, string(runes[:maxLen]))
			word = string(runes[maxLen:])
			wordLen = utf8.RuneCountInString(word)
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
