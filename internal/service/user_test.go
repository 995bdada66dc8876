package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainvault/brainvault-server/internal/auth"
	"github.com/brainvault/brainvault-server/internal/domain"
	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/events"
)

func newUserService(env *testEnv) *UserService {
	return NewUserService(env.store, env.emitter, discardLogger())
}

func TestResolve_ProvisionsOnce(t *testing.T) {
	env := setupTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	identity := &auth.Identity{Subject: "auth0|abc", Email: "ada@example.com"}
	first, err := svc.Resolve(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", first.ExternalAuthID)
	assert.Equal(t, domain.TierFree, first.SubscriptionTier)

	second, err := svc.Resolve(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.Resolve(ctx, &auth.Identity{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	_, err = svc.Resolve(ctx, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestUpdateUser(t *testing.T) {
	env := setupTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()
	ada := env.createUser(t, "auth0|ada")
	bob := env.createUser(t, "auth0|bob")

	updated, err := svc.UpdateUser(ctx, ada.ID, UpdateUserRequest{
		Email:       ptr("Ada@Example.COM"),
		DisplayName: ptr("Ada"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.Equal(t, "Ada", updated.DisplayName)

	_, err = svc.UpdateUser(ctx, bob.ID, UpdateUserRequest{Email: ptr("ADA@example.com")})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	_, err = svc.UpdateUser(ctx, bob.ID, UpdateUserRequest{Email: ptr("not-an-email")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.UpdateUser(ctx, "user-missing", UpdateUserRequest{DisplayName: ptr("Ghost")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteUser_CascadesIdeas(t *testing.T) {
	env := setupTestEnv(t, withIndex())
	svc := newUserService(env)
	ctx := context.Background()
	ada := env.createUser(t, "auth0|ada")
	bob := env.createUser(t, "auth0|bob")

	env.insertIdea(t, ada.ID, "idea-1", "Ada's kite", time.Now(), domain.Classification{})
	env.insertIdea(t, bob.ID, "idea-2", "Bob's kite", time.Now(), domain.Classification{})

	require.NoError(t, svc.DeleteUser(ctx, ada.ID))

	_, err := svc.GetUser(ctx, ada.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Zero(t, env.countIdeas(t, ada.ID))
	assert.Equal(t, 1, env.countIdeas(t, bob.ID))

	count, err := env.search.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	assert.Contains(t, env.published.Types(), events.TypeUserDeleted)
	assert.ErrorIs(t, svc.DeleteUser(ctx, ada.ID), domainerrors.ErrNotFound)
}
