// Package auth verifies bearer tokens and resolves them to a caller identity.
//
// Production deployments verify Auth0-issued JWTs against the tenant's JWKS.
// Local development uses PASETO v4.local tokens minted by this server.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingToken indicates no bearer token was supplied.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken indicates a malformed, forged, or mis-scoped token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the verified caller as the identity provider describes them.
type Identity struct {
	// Subject is the provider's stable user ID, e.g. "auth0|6543".
	Subject string
	Email   string
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>" header.
func ExtractBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
