package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/brainvault/brainvault-server/internal/id"
)

const (
	tokenIssuer   = "brainvault-server"
	tokenAudience = "brainvault-client"

	// LocalSubjectPrefix marks subjects minted by LocalTokenService.
	LocalSubjectPrefix = "local|"
)

// LocalTokenService mints and verifies PASETO v4.local tokens for development.
type LocalTokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewLocalTokenService creates a token service from a 32-byte key.
func NewLocalTokenService(key []byte, duration time.Duration) (*LocalTokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &LocalTokenService{symmetricKey: symmetricKey, duration: duration, now: time.Now}, nil
}

// Issue mints a token for name. The subject becomes "local|<name>".
func (s *LocalTokenService) Issue(name, email string) (string, time.Time, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", time.Time{}, errors.New("subject name is required")
	}

	now := s.now()
	expires := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(LocalSubjectPrefix + name)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	tokenID, err := id.Generate("token")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	if email != "" {
		//nolint:errcheck // Token.Set only errors on invalid types, which we control
		_ = token.Set("email", email)
	}

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// Verify implements Verifier.
func (s *LocalTokenService) Verify(_ context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	// Expiry is checked separately so it can be reported distinctly.
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	exp, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	if !s.now().Before(exp) {
		return nil, ErrTokenExpired
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	email, _ := token.GetString("email")

	return &Identity{Subject: subject, Email: email}, nil
}
