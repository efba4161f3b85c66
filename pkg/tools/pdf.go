package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/research-copilot/copilot/pkg/extract"
	"github.com/research-copilot/copilot/pkg/llms"
	"github.com/research-copilot/copilot/pkg/uploads"
)

// Markers for the uploaded-document edge cases. The summarizer
// short-circuits on any of them instead of summarizing an error.
const (
	NoDocumentMarker   = "❌ No PDF uploaded yet."
	NotFoundMarker     = "❌ PDF not found on server."
	NoTextMarker       = "⚠️ PDF contains no extractable text."
	readErrorPrefix    = "Error reading PDF:"
	summarizePromptFmt = "Summarize the following PDF content concisely:\n\n%s"
)

// HistoryClearer drops a session's conversation history. The
// summarizer clears it so stale document context cannot leak into the
// summary.
type HistoryClearer interface {
	Clear(sessionID string)
}

// readDocument resolves the target document (explicit name or the
// session's current upload) and extracts its text. All failure modes
// come back as marker strings, never errors.
func readDocument(ctx context.Context, store *uploads.Store, input string) string {
	name := strings.TrimSpace(input)
	if name == "" {
		if inv := InvocationFromContext(ctx); inv != nil {
			name = inv.CurrentDocument
		}
	}
	if name == "" {
		return NoDocumentMarker
	}

	path, err := store.Path(name)
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) {
			return NotFoundMarker
		}
		return fmt.Sprintf("%s %v", readErrorPrefix, err)
	}

	text, err := extract.Text(ctx, path)
	if err != nil {
		return fmt.Sprintf("%s %v", readErrorPrefix, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return NoTextMarker
	}
	return text
}

// isFailureMarker reports whether extracted "text" is actually one of
// the failure markers.
func isFailureMarker(text string) bool {
	return strings.HasPrefix(text, "❌") ||
		strings.HasPrefix(text, "⚠️") ||
		strings.HasPrefix(text, "Error")
}

// ============================================================================
// PDF READER
// ============================================================================

// PDFReaderTool reads the text of the latest uploaded document.
type PDFReaderTool struct {
	store *uploads.Store
}

func NewPDFReaderTool(store *uploads.Store) *PDFReaderTool {
	return &PDFReaderTool{store: store}
}

func (t *PDFReaderTool) GetName() string { return "PDFReader" }

func (t *PDFReaderTool) GetDescription() string {
	return "Reads text from the latest uploaded PDF file."
}

func (t *PDFReaderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Optional file name; defaults to the latest upload."),
	}
}

func (t *PDFReaderTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()
	return successResult(t.GetName(), readDocument(ctx, t.store, inputArg(args)), start), nil
}

// ============================================================================
// PDF SUMMARIZER
// ============================================================================

// PDFSummarizerTool summarizes the latest uploaded document with a
// single model completion.
type PDFSummarizerTool struct {
	store    *uploads.Store
	provider llms.Provider
	history  HistoryClearer
}

func NewPDFSummarizerTool(store *uploads.Store, provider llms.Provider, history HistoryClearer) *PDFSummarizerTool {
	return &PDFSummarizerTool{store: store, provider: provider, history: history}
}

func (t *PDFSummarizerTool) GetName() string { return "PDFSummarizer" }

func (t *PDFSummarizerTool) GetDescription() string {
	return "Summarizes the latest uploaded PDF file."
}

func (t *PDFSummarizerTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Optional file name; defaults to the latest upload."),
	}
}

func (t *PDFSummarizerTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	text := readDocument(ctx, t.store, inputArg(args))
	if isFailureMarker(text) {
		// Nothing worth a model call; surface the marker as the answer.
		return successResult(t.GetName(), text, start), nil
	}

	// Old document context must not color the fresh summary.
	if t.history != nil {
		if inv := InvocationFromContext(ctx); inv != nil && inv.SessionID != "" {
			t.history.Clear(inv.SessionID)
		}
	}

	summary, _, _, err := t.provider.Generate([]llms.Message{
		{Role: "user", Content: fmt.Sprintf(summarizePromptFmt, text)},
	}, nil)
	if err != nil {
		return successResult(t.GetName(), fmt.Sprintf("Error summarizing PDF: %v", err), start), nil
	}

	return successResult(t.GetName(), summary, start), nil
}

var (
	_ Tool = (*PDFReaderTool)(nil)
	_ Tool = (*PDFSummarizerTool)(nil)
)
