package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
)

// registerAuthRoutes exposes token minting for local development. The route
// only exists when the server runs in local auth mode.
func (s *Server) registerAuthRoutes() {
	if s.devTokens == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "issueDevToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/dev-token",
		Summary:     "Issue development token",
		Description: "Mints a bearer token for a local user. Only available in local auth mode",
		Tags:        []string{"Auth"},
	}, s.handleIssueDevToken)
}

// DevTokenRequest is the request body for minting a local token.
type DevTokenRequest struct {
	Name  string `json:"name" minLength:"1" maxLength:"64" doc:"Local user name, becomes the token subject"`
	Email string `json:"email,omitempty" format:"email" doc:"Email claim"`
}

// DevTokenInput wraps the dev token request for Huma.
type DevTokenInput struct {
	Body DevTokenRequest
}

// DevTokenResponse contains a freshly minted token.
type DevTokenResponse struct {
	AccessToken string    `json:"access_token" doc:"Bearer token"`
	TokenType   string    `json:"token_type" doc:"Always Bearer"`
	ExpiresAt   time.Time `json:"expires_at" doc:"Token expiry"`
}

// DevTokenOutput wraps the dev token response for Huma.
type DevTokenOutput struct {
	Body DevTokenResponse
}

func (s *Server) handleIssueDevToken(_ context.Context, input *DevTokenInput) (*DevTokenOutput, error) {
	token, expires, err := s.devTokens.Issue(input.Body.Name, input.Body.Email)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	return &DevTokenOutput{
		Body: DevTokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expires,
		},
	}, nil
}
