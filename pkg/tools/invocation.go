package tools

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const invocationContextKey contextKey = "copilot_tool_invocation"

// Invocation carries the per-request user state tools act on behalf of.
type Invocation struct {
	// UserID is the Google account email, the key under which tokens
	// are stored. Empty when the user signed in with GitHub only.
	UserID string

	// GitHubToken is the GitHub access token, or "" when GitHub is not
	// connected.
	GitHubToken string

	// GitHubLogin is the connected GitHub account name. Issues are
	// created under this owner.
	GitHubLogin string

	// CurrentDocument is the session's most recently uploaded file.
	CurrentDocument string

	// SessionID identifies the conversation whose history the
	// summarizer may clear.
	SessionID string
}

// ContextWithInvocation returns a context carrying the invocation.
func ContextWithInvocation(ctx context.Context, inv *Invocation) context.Context {
	return context.WithValue(ctx, invocationContextKey, inv)
}

// InvocationFromContext extracts the invocation, or nil.
func InvocationFromContext(ctx context.Context) *Invocation {
	if inv, ok := ctx.Value(invocationContextKey).(*Invocation); ok {
		return inv
	}
	return nil
}
