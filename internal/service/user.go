package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brainvault/brainvault-server/internal/auth"
	"github.com/brainvault/brainvault-server/internal/domain"
	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/store"
	"github.com/brainvault/brainvault-server/internal/validation"
)

// UpdateUserRequest is a partial profile update.
type UpdateUserRequest struct {
	Email       *string `json:"email,omitempty" validate:"omitnil,omitempty,email,max=254"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitnil,max=100"`
}

// UserService provisions and manages accounts keyed by identity provider subject.
type UserService struct {
	store     store.UserStore
	validator *validation.Validator
	events    *events.Emitter
	logger    *slog.Logger
}

// NewUserService creates a user service.
func NewUserService(store store.UserStore, emitter *events.Emitter, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		validator: validation.New(),
		events:    emitter,
		logger:    logger,
	}
}

// Resolve returns the account for a verified identity, creating it on the
// first authenticated request.
func (s *UserService) Resolve(ctx context.Context, identity *auth.Identity) (*domain.User, error) {
	if identity == nil || identity.Subject == "" {
		return nil, domainerrors.Unauthorized("token has no subject")
	}

	user, created, err := s.store.GetOrCreateUserByExternalID(ctx, identity.Subject, identity.Email)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("user provisioned", "user_id", user.ID, "external_auth_id", user.ExternalAuthID)
	}
	return user, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err, ErrUserNotFound)
	}
	return user, nil
}

// UpdateUser changes the caller's email or display name. The subscription
// tier is managed by billing and cannot be changed here.
func (s *UserService) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patch := domain.UserPatch{DisplayName: req.DisplayName}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		patch.Email = &email
	}

	user, err := s.store.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, mapStoreError(err, ErrUserNotFound)
	}
	return user, nil
}

// DeleteUser removes the account and every idea it owns.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return mapStoreError(err, ErrUserNotFound)
	}

	s.events.Emit(ctx, events.New(events.TypeUserDeleted, userID, "", nil))
	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
