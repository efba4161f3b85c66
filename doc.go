// Package copilot provides a personal research assistant backend.
//
// Copilot exposes one conversational endpoint backed by a tool-using
// language-model agent. The agent can search the web, read and send
// Gmail, list Google Calendar events, work with Google Docs, list
// GitHub repositories and create issues, and read or summarize
// uploaded documents on the user's behalf.
//
// # Quick Start
//
// Install the server:
//
//	go install github.com/research-copilot/copilot/cmd/copilot@latest
//
// Create a configuration:
//
//	server:
//	  port: 5000
//	llm:
//	  type: "gemini"
//	  model: "gemini-2.5-flash"
//	  api_key: "${GOOGLE_API_KEY}"
//	google:
//	  client_id: "${GOOGLE_CLIENT_ID}"
//	  client_secret: "${GOOGLE_CLIENT_SECRET}"
//	credentials:
//	  encryption_key: "${ENCRYPTION_KEY}"
//
// Start the server:
//
//	copilot serve --config config.yaml
//
// # Packages
//
//	import (
//	    "github.com/research-copilot/copilot/pkg/agent"
//	    "github.com/research-copilot/copilot/pkg/tools"
//	    "github.com/research-copilot/copilot/pkg/config"
//	)
//
// Users sign in with Google (and optionally GitHub); delegated OAuth
// tokens are encrypted at rest and refreshed transparently when the
// agent calls third-party APIs.
package copilot
