package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/httpclient"
	"github.com/research-copilot/copilot/pkg/session"
)

var githubUserURL = "https://api.github.com/user"

// DefaultGitHubScopes grants read access to public and private repos.
var DefaultGitHubScopes = []string{"read:user", "repo"}

// NewGitHubConfig builds the oauth2 client configuration for GitHub.
func NewGitHubConfig(cfg *config.OAuthConfig, redirectURL string) *oauth2.Config {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultGitHubScopes
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     github.Endpoint,
	}
}

// FetchGitHubUser resolves the identity behind a GitHub access token.
func FetchGitHubUser(ctx context.Context, client *httpclient.Client, token string) (*session.GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", githubUserURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GitHub user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub user request returned %d: %s", resp.StatusCode, string(body))
	}

	var user session.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub user: %w", err)
	}

	if user.Login == "" {
		return nil, fmt.Errorf("GitHub user response missing login")
	}

	return &user, nil
}
