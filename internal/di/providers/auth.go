package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/auth"
	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/logger"
)

// AuthHandle holds the token verifier and, in local mode, the dev token issuer.
type AuthHandle struct {
	Verifier  auth.Verifier
	DevTokens *auth.LocalTokenService
}

// ProvideAuth provides token verification for the configured auth mode.
func ProvideAuth(i do.Injector) (*AuthHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Auth.Mode {
	case "auth0":
		verifier, err := auth.NewJWKSVerifier(cfg.Auth.Issuer(), cfg.Auth.Auth0Audience, cfg.Auth.JWKSURL())
		if err != nil {
			return nil, fmt.Errorf("auth0 verifier: %w", err)
		}
		log.Info("Auth0 token verification enabled", "issuer", cfg.Auth.Issuer())
		return &AuthHandle{Verifier: verifier}, nil

	case "local":
		key, err := auth.LoadOrGenerateKey(cfg.Auth.LocalKeyPath)
		if err != nil {
			return nil, err
		}
		tokens, err := auth.NewLocalTokenService(key, cfg.Auth.TokenDuration)
		if err != nil {
			return nil, err
		}
		log.Warn("Local token auth enabled, dev tokens can be minted at /api/v1/auth/dev-token")
		return &AuthHandle{Verifier: tokens, DevTokens: tokens}, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}
