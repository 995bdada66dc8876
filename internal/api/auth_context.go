package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/brainvault/brainvault-server/internal/auth"
	"github.com/brainvault/brainvault-server/internal/domain"
	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/http/response"
	"github.com/brainvault/brainvault-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userKey is the context key for the authenticated user.
const userKey ctxKey = "user"

// publicPrefixes are served without a bearer token.
var publicPrefixes = []string{
	"/health",
	"/metrics",
	"/openapi",
	"/docs",
	"/schemas",
	"/api/v1/auth/",
}

func isPublicPath(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// GetUser returns the authenticated user from context.
// Returns a 401 error if the request was not authenticated.
func GetUser(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(userKey).(*domain.User)
	if !ok || user == nil {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// setUser stores the user in context.
func setUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// authMiddleware verifies the bearer token, provisions the caller's account on
// first use, and stores the user in context. Requests to protected paths
// without a valid token are rejected before any handler runs. Public paths
// continue without a user.
func authMiddleware(verifier auth.Verifier, users *service.UserService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			public := isPublicPath(r.URL.Path) || r.Method == http.MethodOptions

			token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				response.HandleError(w, domainerrors.Unauthorized("Missing or malformed authorization header"), logger)
				return
			}

			user, err := resolveUser(r.Context(), verifier, users, token)
			if err != nil {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				logger.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
				response.HandleError(w, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(setUser(r.Context(), user)))
		})
	}
}

// resolveUser maps verification failures to 401 errors. Store failures are
// returned as is.
func resolveUser(ctx context.Context, verifier auth.Verifier, users *service.UserService, token string) (*domain.User, error) {
	if verifier == nil {
		return nil, domainerrors.Unauthorized("Authentication is not configured")
	}

	identity, err := verifier.Verify(ctx, token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, domainerrors.TokenExpired("Token expired")
	case err != nil:
		return nil, domainerrors.Unauthorized("Invalid token")
	}

	return users.Resolve(ctx, identity)
}
