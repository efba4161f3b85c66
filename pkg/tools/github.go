package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/research-copilot/copilot/pkg/httpclient"
)

const githubLoginPrompt = "⚠️ Please log in with GitHub first."

// GitHubClient issues authorized calls to the GitHub REST API.
type GitHubClient struct {
	HTTPClient *httpclient.Client
	BaseURL    string
}

// NewGitHubClient creates a client against api.github.com.
func NewGitHubClient() *GitHubClient {
	return &GitHubClient{
		HTTPClient: httpclient.New(),
		BaseURL:    "https://api.github.com",
	}
}

func (c *GitHubClient) do(ctx context.Context, token, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GitHub API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUpstreamRejected, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ============================================================================
// REPO LISTING
// ============================================================================

// GitHubReposTool lists the connected user's repositories. The GitHub
// identity is separate from Google; without it the tool answers with a
// login prompt instead of failing the turn.
type GitHubReposTool struct {
	github *GitHubClient
}

func NewGitHubReposTool(github *GitHubClient) *GitHubReposTool {
	return &GitHubReposTool{github: github}
}

func (t *GitHubReposTool) GetName() string { return "GitHubRepos" }

func (t *GitHubReposTool) GetDescription() string {
	return "List GitHub repos."
}

func (t *GitHubReposTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Unused."),
	}
}

func (t *GitHubReposTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.GitHubToken == "" {
		return successResult(t.GetName(), githubLoginPrompt, start), nil
	}

	var repos []struct {
		Name string `json:"name"`
	}
	if err := t.github.do(ctx, inv.GitHubToken, "GET", "/user/repos", nil, &repos); err != nil {
		return successResult(t.GetName(), fmt.Sprintf("❌ Failed: %v", err), start), nil
	}

	if len(repos) == 0 {
		return successResult(t.GetName(), "No repos found.", start), nil
	}

	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.Name
	}

	return successResult(t.GetName(), strings.Join(names, "\n"), start), nil
}

// ============================================================================
// ISSUE CREATION
// ============================================================================

// GitHubIssueTool opens an issue in one of the user's repositories.
type GitHubIssueTool struct {
	github *GitHubClient
}

func NewGitHubIssueTool(github *GitHubClient) *GitHubIssueTool {
	return &GitHubIssueTool{github: github}
}

func (t *GitHubIssueTool) GetName() string { return "GitHubIssue" }

func (t *GitHubIssueTool) GetDescription() string {
	return "Create a GitHub issue. Format: repo=<>, title=<>, body=<>."
}

func (t *GitHubIssueTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Repository, title and optional body as repo=, title=, body=."),
	}
}

func (t *GitHubIssueTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.GitHubToken == "" || inv.GitHubLogin == "" {
		return successResult(t.GetName(), githubLoginPrompt, start), nil
	}

	req, err := ParseIssueInput(inputArg(args))
	if err != nil {
		return successResult(t.GetName(), fmt.Sprintf("❌ Failed: %v", err), start), nil
	}

	// Issues go in the user's own repos; a bare name is owned by them.
	owner := inv.GitHubLogin
	repo := req.Repo
	if strings.Contains(repo, "/") {
		parts := strings.SplitN(repo, "/", 2)
		owner, repo = parts[0], parts[1]
	}

	var created struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	path := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	payload := map[string]string{"title": req.Title, "body": req.Body}
	if err := t.github.do(ctx, inv.GitHubToken, "POST", path, payload, &created); err != nil {
		return successResult(t.GetName(), fmt.Sprintf("❌ Failed to create issue: %v", err), start), nil
	}

	return successResult(t.GetName(),
		fmt.Sprintf("✅ Created issue #%d in %s/%s: %s", created.Number, owner, repo, created.HTMLURL), start), nil
}

var (
	_ Tool = (*GitHubReposTool)(nil)
	_ Tool = (*GitHubIssueTool)(nil)
)
