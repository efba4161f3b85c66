package auth

import "errors"

// Common authentication errors.
var (
	// ErrProviderDisabled is returned when an OAuth provider has no
	// client credentials configured.
	ErrProviderDisabled = errors.New("oauth provider is not configured")

	// ErrStateMismatch is returned when the OAuth callback state does
	// not match the one issued at login.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrInvalidToken is returned when an ID token cannot be validated.
	ErrInvalidToken = errors.New("invalid token")
)
