package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/research-copilot/copilot/pkg/llms"
)

// ============================================================================
// GMAIL READER
// ============================================================================

// GmailReaderTool reads the most recent inbox messages.
type GmailReaderTool struct {
	google *GoogleClient
}

func NewGmailReaderTool(google *GoogleClient) *GmailReaderTool {
	return &GmailReaderTool{google: google}
}

func (t *GmailReaderTool) GetName() string { return "GmailReader" }

func (t *GmailReaderTool) GetDescription() string {
	return "Reads last 5 Gmail messages."
}

func (t *GmailReaderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Unused."),
	}
}

func (t *GmailReaderTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.UserID == "" {
		return errorResult(t.GetName(), "User not authenticated via Google", start), nil
	}

	var listResp struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	url := fmt.Sprintf("%s/gmail/v1/users/me/messages?maxResults=5", t.google.GmailURL)
	if err := t.google.GetJSON(ctx, inv.UserID, url, &listResp); err != nil {
		return errorResult(t.GetName(), err.Error(), start), nil
	}

	var snippets []string
	for _, msg := range listResp.Messages {
		var msgResp struct {
			Snippet string `json:"snippet"`
		}
		msgURL := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s", t.google.GmailURL, msg.ID)
		if err := t.google.GetJSON(ctx, inv.UserID, msgURL, &msgResp); err != nil {
			slog.Warn("failed to fetch message", "id", msg.ID, "error", err)
			continue
		}
		snippets = append(snippets, msgResp.Snippet)
	}

	content := "No recent emails."
	if len(snippets) > 0 {
		content = strings.Join(snippets, "\n\n")
	}

	return successResult(t.GetName(), content, start), nil
}

// ============================================================================
// GMAIL SENDER
// ============================================================================

// GmailSenderTool sends mail. It accepts the strict
// "to=, subject=, body=" format and falls back to model-based
// extraction for natural-language requests.
type GmailSenderTool struct {
	google   *GoogleClient
	provider llms.Provider
}

func NewGmailSenderTool(google *GoogleClient, provider llms.Provider) *GmailSenderTool {
	return &GmailSenderTool{google: google, provider: provider}
}

func (t *GmailSenderTool) GetName() string { return "GmailSender" }

func (t *GmailSenderTool) GetDescription() string {
	return "Send email. Format: to=<>, subject=<>, body=<>."
}

func (t *GmailSenderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Recipient, subject and body, or a natural-language request."),
	}
}

func (t *GmailSenderTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.UserID == "" {
		return errorResult(t.GetName(), "User not authenticated via Google", start), nil
	}

	input := inputArg(args)

	req, err := ParseSendInput(input)
	if err != nil {
		// Structured parse failed; let the model extract the details.
		req, err = t.extractSendRequest(input)
		if err != nil {
			slog.Warn("could not extract email request", "error", err)
			return successResult(t.GetName(), "❌ Could not understand email request.", start), nil
		}
	}

	raw := encodeMessage(req)
	url := fmt.Sprintf("%s/gmail/v1/users/me/messages/send", t.google.GmailURL)
	if err := t.google.PostJSON(ctx, inv.UserID, url, map[string]string{"raw": raw}, nil); err != nil {
		return successResult(t.GetName(), fmt.Sprintf("Failed to send email: %v", err), start), nil
	}

	return successResult(t.GetName(), fmt.Sprintf("✅ Email sent successfully to %s", req.To), start), nil
}

// extractSendRequest asks the model to turn a natural-language request
// into recipient, subject and body. Fails closed on anything that does
// not resolve to a plausible address.
func (t *GmailSenderTool) extractSendRequest(input string) (*SendRequest, error) {
	prompt := fmt.Sprintf(`You are an AI email parser. Extract details to send an email from this text:
%q

Return JSON with keys:
{
  "to": "receiver email address",
  "subject": "a short relevant subject line",
  "body": "a formal, polite email body"
}`, input)

	text, _, _, err := t.provider.Generate([]llms.Message{
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("email extraction failed: %w", err)
	}

	begin := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if begin == -1 || end == -1 || end < begin {
		return nil, fmt.Errorf("%w: no JSON in model response", ErrMalformedInput)
	}

	var req SendRequest
	if err := json.Unmarshal([]byte(text[begin:end+1]), &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	if err := validateRecipient(req.To); err != nil {
		return nil, err
	}

	return &req, nil
}

// encodeMessage builds the RFC 2822 message Gmail expects, base64url
// encoded.
func encodeMessage(req *SendRequest) string {
	msg := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		req.To, req.Subject, req.Body)
	return base64.URLEncoding.EncodeToString([]byte(msg))
}

func successResult(toolName, content string, start time.Time) ToolResult {
	return ToolResult{
		Success:       true,
		Content:       content,
		ToolName:      toolName,
		ExecutionTime: time.Since(start),
	}
}

func errorResult(toolName, message string, start time.Time) ToolResult {
	return ToolResult{
		Success:       false,
		Error:         message,
		ToolName:      toolName,
		ExecutionTime: time.Since(start),
	}
}

var (
	_ Tool = (*GmailReaderTool)(nil)
	_ Tool = (*GmailSenderTool)(nil)
)
