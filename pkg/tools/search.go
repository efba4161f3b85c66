package tools

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/research-copilot/copilot/pkg/httpclient"
)

const maxSearchResults = 5

var (
	resultSnippetPattern = regexp.MustCompile(`(?s)class="result__snippet"[^>]*>(.*?)</a>`)
	tagPattern           = regexp.MustCompile(`<[^>]+>`)
)

// SearchTool answers general-knowledge queries with DuckDuckGo result
// snippets.
type SearchTool struct {
	httpClient *httpclient.Client
	baseURL    string
}

func NewSearchTool() *SearchTool {
	return &SearchTool{
		httpClient: httpclient.New(),
		baseURL:    "https://html.duckduckgo.com/html/",
	}
}

func (t *SearchTool) GetName() string { return "duckduckgo_search" }

func (t *SearchTool) GetDescription() string {
	return "Search the web for current information. Input is a plain search query."
}

func (t *SearchTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("The search query."),
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	query := strings.TrimSpace(inputArg(args))
	if query == "" {
		return errorResult(t.GetName(), "search query is required", start), nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		t.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return errorResult(t.GetName(), fmt.Sprintf("failed to create request: %v", err), start), nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; research-copilot)")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errorResult(t.GetName(), fmt.Sprintf("search request failed: %v", err), start), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult(t.GetName(),
			fmt.Sprintf("search returned status %d", resp.StatusCode), start), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return errorResult(t.GetName(), fmt.Sprintf("failed to read results: %v", err), start), nil
	}

	snippets := extractSnippets(string(body), maxSearchResults)
	if len(snippets) == 0 {
		return successResult(t.GetName(), "No search results found.", start), nil
	}

	return successResult(t.GetName(), strings.Join(snippets, "\n\n"), start), nil
}

// extractSnippets pulls result snippets out of the DuckDuckGo HTML
// results page.
func extractSnippets(page string, limit int) []string {
	var snippets []string
	for _, match := range resultSnippetPattern.FindAllStringSubmatch(page, limit) {
		text := tagPattern.ReplaceAllString(match[1], "")
		text = strings.TrimSpace(html.UnescapeString(text))
		if text != "" {
			snippets = append(snippets, text)
		}
	}
	return snippets
}

var _ Tool = (*SearchTool)(nil)
