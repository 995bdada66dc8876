package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the caller's account",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Updates the caller's email or display name",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCurrentUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/users/me",
		Summary:       "Delete current user",
		Description:   "Deletes the caller's account and every idea it owns",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCurrentUser)
}

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID               string    `json:"id" doc:"User ID"`
	Email            string    `json:"email,omitempty" doc:"Email address"`
	DisplayName      string    `json:"display_name,omitempty" doc:"Display name"`
	SubscriptionTier string    `json:"subscription_tier" doc:"Billing plan"`
	CreatedAt        time.Time `json:"created_at" doc:"Account creation time"`
	UpdatedAt        time.Time `json:"updated_at" doc:"Last update time"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UpdateUserRequest is the request body for updating the current user.
type UpdateUserRequest struct {
	Email       *string `json:"email,omitempty" maxLength:"254" doc:"Email address"`
	DisplayName *string `json:"display_name,omitempty" maxLength:"100" doc:"Display name"`
}

// UpdateUserInput wraps the update user request for Huma.
type UpdateUserInput struct {
	Body UpdateUserRequest
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.services.Users.UpdateUser(ctx, user.ID, service.UpdateUserRequest{
		Email:       input.Body.Email,
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(updated)}, nil
}

func (s *Server) handleDeleteCurrentUser(ctx context.Context, _ *struct{}) (*struct{}, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.DeleteUser(ctx, user.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		SubscriptionTier: string(u.SubscriptionTier),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
