package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ============================================================================
// DOCS LIST
// ============================================================================

// DocsListTool lists the user's Google Docs via the Drive API.
type DocsListTool struct {
	google *GoogleClient
}

func NewDocsListTool(google *GoogleClient) *DocsListTool {
	return &DocsListTool{google: google}
}

func (t *DocsListTool) GetName() string { return "DocsList" }

func (t *DocsListTool) GetDescription() string {
	return "List Google Docs."
}

func (t *DocsListTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Unused."),
	}
}

func (t *DocsListTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.UserID == "" {
		return errorResult(t.GetName(), "User not authenticated via Google", start), nil
	}

	params := url.Values{}
	params.Set("q", "mimeType='application/vnd.google-apps.document'")
	params.Set("pageSize", "5")
	params.Set("fields", "files(id, name)")

	var resp struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := t.google.GetJSON(ctx, inv.UserID,
		t.google.DriveURL+"/files?"+params.Encode(), &resp); err != nil {
		return successResult(t.GetName(), fmt.Sprintf("Error listing docs: %v", err), start), nil
	}

	if len(resp.Files) == 0 {
		return successResult(t.GetName(), "No Google Docs found.", start), nil
	}

	lines := make([]string, len(resp.Files))
	for i, f := range resp.Files {
		lines[i] = fmt.Sprintf("%s - %s", f.Name, f.ID)
	}

	return successResult(t.GetName(), strings.Join(lines, "\n"), start), nil
}

// ============================================================================
// DOCS CREATE
// ============================================================================

// DocsCreateTool creates a Google Doc, optionally seeding its body.
type DocsCreateTool struct {
	google *GoogleClient
}

func NewDocsCreateTool(google *GoogleClient) *DocsCreateTool {
	return &DocsCreateTool{google: google}
}

func (t *DocsCreateTool) GetName() string { return "DocsCreate" }

func (t *DocsCreateTool) GetDescription() string {
	return "Create Google Doc. Format: title=<>, content=<>."
}

func (t *DocsCreateTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Title and optional content as title=, content=."),
	}
}

func (t *DocsCreateTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.UserID == "" {
		return errorResult(t.GetName(), "User not authenticated via Google", start), nil
	}

	req := ParseCreateDocInput(inputArg(args))

	var created struct {
		ID string `json:"id"`
	}
	err := t.google.PostJSON(ctx, inv.UserID, t.google.DriveURL+"/files", map[string]string{
		"name":     req.Title,
		"mimeType": "application/vnd.google-apps.document",
	}, &created)
	if err != nil {
		return successResult(t.GetName(), fmt.Sprintf("Error creating doc: %v", err), start), nil
	}

	if req.Content != "" {
		batchURL := fmt.Sprintf("%s/v1/documents/%s:batchUpdate", t.google.DocsURL, created.ID)
		body := map[string]interface{}{
			"requests": []map[string]interface{}{
				{
					"insertText": map[string]interface{}{
						"location": map[string]interface{}{"index": 1},
						"text":     req.Content,
					},
				},
			},
		}
		if err := t.google.PostJSON(ctx, inv.UserID, batchURL, body, nil); err != nil {
			return successResult(t.GetName(), fmt.Sprintf("Error creating doc: %v", err), start), nil
		}
	}

	return successResult(t.GetName(),
		fmt.Sprintf("✅ Created Google Doc: %s (%s)", req.Title, created.ID), start), nil
}

// ============================================================================
// DOCS READ
// ============================================================================

// DocsReadTool reads a Google Doc's text content by ID.
type DocsReadTool struct {
	google *GoogleClient
}

func NewDocsReadTool(google *GoogleClient) *DocsReadTool {
	return &DocsReadTool{google: google}
}

func (t *DocsReadTool) GetName() string { return "DocsRead" }

func (t *DocsReadTool) GetDescription() string {
	return "Read Google Doc. Format: id=<doc_id>."
}

func (t *DocsReadTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Document ID as id=<doc_id>."),
	}
}

func (t *DocsReadTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.UserID == "" {
		return errorResult(t.GetName(), "User not authenticated via Google", start), nil
	}

	docID, err := ParseReadDocInput(inputArg(args))
	if err != nil {
		return successResult(t.GetName(), fmt.Sprintf("Error reading doc: %v", err), start), nil
	}

	var doc struct {
		Title string `json:"title"`
		Body  struct {
			Content []struct {
				Paragraph struct {
					Elements []struct {
						TextRun struct {
							Content string `json:"content"`
						} `json:"textRun"`
					} `json:"elements"`
				} `json:"paragraph"`
			} `json:"content"`
		} `json:"body"`
	}
	docURL := fmt.Sprintf("%s/v1/documents/%s", t.google.DocsURL, url.PathEscape(docID))
	if err := t.google.GetJSON(ctx, inv.UserID, docURL, &doc); err != nil {
		return successResult(t.GetName(), fmt.Sprintf("Error reading doc: %v", err), start), nil
	}

	var content strings.Builder
	for _, elem := range doc.Body.Content {
		for _, e := range elem.Paragraph.Elements {
			content.WriteString(e.TextRun.Content)
		}
	}

	return successResult(t.GetName(),
		fmt.Sprintf("📖 %s:\n\n%s", doc.Title, strings.TrimSpace(content.String())), start), nil
}

var (
	_ Tool = (*DocsListTool)(nil)
	_ Tool = (*DocsCreateTool)(nil)
	_ Tool = (*DocsReadTool)(nil)
)
