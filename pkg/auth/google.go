// Package auth provides the OAuth2 flows for Google and GitHub.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/session"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// DefaultGoogleScopes covers identity plus every Google API the tools
// touch: Gmail read/send, Calendar, Docs and Drive listing.
var DefaultGoogleScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/drive.readonly",
}

// NewGoogleConfig builds the oauth2 client configuration for Google.
func NewGoogleConfig(cfg *config.OAuthConfig, redirectURL string) *oauth2.Config {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultGoogleScopes
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// GoogleAuthCodeURL builds the consent URL. Offline access with forced
// consent guarantees a refresh token on every login.
func GoogleAuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// RandomState generates an unguessable OAuth state nonce.
func RandomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IDTokenVerifier validates Google ID tokens against Google's JWKS.
// Keys are cached and auto-refreshed to handle rotation.
type IDTokenVerifier struct {
	jwksURL  string
	cache    *jwk.Cache
	audience string
}

// NewIDTokenVerifier creates a verifier for the given OAuth client ID.
func NewIDTokenVerifier(ctx context.Context, clientID string) (*IDTokenVerifier, error) {
	cache := jwk.NewCache(ctx)

	if err := cache.Register(googleJWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	if _, err := cache.Refresh(ctx, googleJWKSURL); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", googleJWKSURL, err)
	}

	return &IDTokenVerifier{
		jwksURL:  googleJWKSURL,
		cache:    cache,
		audience: clientID,
	}, nil
}

// Verify validates the ID token signature, expiry, issuer and audience,
// and extracts the user's identity.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (*session.GoogleUser, error) {
	keyset, err := v.cache.Get(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(rawToken),
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
		jwt.WithIssuer("https://accounts.google.com"),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user := &session.GoogleUser{Sub: token.Subject()}

	if email, ok := token.Get("email"); ok {
		user.Email, _ = email.(string)
	}
	if name, ok := token.Get("name"); ok {
		user.Name, _ = name.(string)
	}
	if picture, ok := token.Get("picture"); ok {
		user.Picture, _ = picture.(string)
	}

	if user.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return user, nil
}
