package tools

import (
	"fmt"
	"strings"
)

// SendRequest is the resolved input for sending an email.
type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// CreateDocRequest is the resolved input for creating a Google Doc.
type CreateDocRequest struct {
	Title   string
	Content string
}

// IssueRequest is the resolved input for creating a GitHub issue.
type IssueRequest struct {
	Repo  string
	Title string
	Body  string
}

// parseKeyValues splits "k1=v1, k2=v2" input into a map. Values keep
// any further "=" characters; keys are trimmed and lowercased.
func parseKeyValues(input string) map[string]string {
	parts := make(map[string]string)
	for _, p := range strings.Split(input, ",") {
		if !strings.Contains(p, "=") {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if key != "" {
			parts[key] = strings.TrimSpace(kv[1])
		}
	}
	return parts
}

// ParseSendInput parses the strict "to=, subject=, body=" mail format.
// Returns ErrMalformedInput when any key is absent, so the caller can
// fall back to model-based extraction.
func ParseSendInput(input string) (*SendRequest, error) {
	if !strings.Contains(input, "to=") ||
		!strings.Contains(input, "subject=") ||
		!strings.Contains(input, "body=") {
		return nil, fmt.Errorf("%w: expected to=, subject=, body=", ErrMalformedInput)
	}

	parts := parseKeyValues(input)

	req := &SendRequest{
		To:      parts["to"],
		Subject: parts["subject"],
		Body:    parts["body"],
	}
	if req.Subject == "" {
		req.Subject = "No Subject"
	}

	if err := validateRecipient(req.To); err != nil {
		return nil, err
	}

	return req, nil
}

// validateRecipient fails closed on anything that isn't plausibly an
// email address.
func validateRecipient(to string) error {
	if to == "" || !strings.Contains(to, "@") {
		return fmt.Errorf("%w: invalid or missing email address", ErrMalformedInput)
	}
	return nil
}

// ParseCreateDocInput parses "title=..., content=..." doc input.
// Missing keys default rather than fail, matching the tool's lenient
// contract.
func ParseCreateDocInput(input string) *CreateDocRequest {
	parts := parseKeyValues(input)

	req := &CreateDocRequest{
		Title:   parts["title"],
		Content: parts["content"],
	}
	if req.Title == "" {
		req.Title = "Untitled"
	}

	return req
}

// ParseReadDocInput parses "id=<doc id>" input.
func ParseReadDocInput(input string) (string, error) {
	if !strings.Contains(input, "=") {
		return "", fmt.Errorf("%w: expected id=<doc id>", ErrMalformedInput)
	}

	id := strings.TrimSpace(strings.SplitN(input, "=", 2)[1])
	if id == "" {
		return "", fmt.Errorf("%w: empty doc id", ErrMalformedInput)
	}

	return id, nil
}

// ParseIssueInput parses "repo=, title=, body=" issue input.
func ParseIssueInput(input string) (*IssueRequest, error) {
	parts := parseKeyValues(input)

	req := &IssueRequest{
		Repo:  parts["repo"],
		Title: parts["title"],
		Body:  parts["body"],
	}
	if req.Repo == "" || req.Title == "" {
		return nil, fmt.Errorf("%w: expected repo=, title=", ErrMalformedInput)
	}

	return req, nil
}
