package tools

import (
	"path/filepath"
	"testing"

	"github.com/fernet/fernet-go"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/credentials"
	"github.com/research-copilot/copilot/pkg/httpclient"
	"github.com/research-copilot/copilot/pkg/llms"
	"github.com/research-copilot/copilot/pkg/uploads"
	"golang.org/x/oauth2"
)

func testHTTPClient() *httpclient.Client {
	return httpclient.New(httpclient.WithMaxRetries(0))
}

// fakeProvider is an llms.Provider double returning canned text.
type fakeProvider struct {
	text  string
	calls int
}

func (f *fakeProvider) Generate(messages []llms.Message, tools []llms.ToolDefinition) (string, []llms.ToolCall, int, error) {
	f.calls++
	return f.text, nil, 0, nil
}

func (f *fakeProvider) GetModelName() string { return "fake" }
func (f *fakeProvider) Close() error         { return nil }

var _ llms.Provider = (*fakeProvider)(nil)

// newTestCredentials returns a Manager whose store already holds a
// valid token for the given user, so no refresh traffic happens.
func newTestCredentials(t *testing.T, userID string) *credentials.Manager {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	store, err := credentials.NewStore(&config.CredentialsConfig{
		DBPath:        filepath.Join(t.TempDir(), "tokens.db"),
		EncryptionKey: key.Encode(),
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Save(t.Context(), userID, &credentials.Token{AccessToken: "test-token"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	return credentials.NewManager(store, &oauth2.Config{ClientID: "test"})
}

func newTestUploads(t *testing.T) *uploads.Store {
	t.Helper()

	cfg := &config.UploadsConfig{Dir: t.TempDir()}
	cfg.SetDefaults()

	store, err := uploads.NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}
