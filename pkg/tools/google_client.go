package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/research-copilot/copilot/pkg/credentials"
	"github.com/research-copilot/copilot/pkg/httpclient"
)

// GoogleClient issues authorized REST calls to the Google APIs the
// tools depend on. Base URLs are fields so tests can point them at
// fake upstreams.
type GoogleClient struct {
	Credentials *credentials.Manager
	HTTPClient  *httpclient.Client

	GmailURL    string
	CalendarURL string
	DriveURL    string
	DocsURL     string
}

// NewGoogleClient creates a client against the production endpoints.
func NewGoogleClient(creds *credentials.Manager) *GoogleClient {
	return &GoogleClient{
		Credentials: creds,
		HTTPClient:  httpclient.New(),
		GmailURL:    "https://gmail.googleapis.com",
		CalendarURL: "https://www.googleapis.com/calendar/v3",
		DriveURL:    "https://www.googleapis.com/drive/v3",
		DocsURL:     "https://docs.googleapis.com",
	}
}

// GetJSON performs an authorized GET and decodes the JSON response.
func (c *GoogleClient) GetJSON(ctx context.Context, userID, url string, out interface{}) error {
	return c.doJSON(ctx, userID, "GET", url, nil, out)
}

// PostJSON performs an authorized POST with a JSON body.
func (c *GoogleClient) PostJSON(ctx context.Context, userID, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.doJSON(ctx, userID, "POST", url, payload, out)
}

func (c *GoogleClient) doJSON(ctx context.Context, userID, method, url string, payload []byte, out interface{}) error {
	accessToken, err := c.Credentials.AccessToken(ctx, userID)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("Google API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUpstreamRejected, url, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
