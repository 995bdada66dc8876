package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/transform"
)

// stubGenerator returns a canned answer or error and counts calls.
type stubGenerator struct {
	name  string
	out   string
	err   error
	calls atomic.Int32
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Generate(_ context.Context, kind transform.Kind, content string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	if g.out != "" {
		return g.out, nil
	}
	return g.name + ":" + string(kind) + ":" + content, nil
}

func unavailable(name string) *stubGenerator {
	return &stubGenerator{name: name, err: &transform.UnavailableError{Generator: name, Err: errors.New("connection refused")}}
}

func newTransformService(env *testEnv, strategy transform.Strategy) *TransformService {
	return NewTransformService(env.store, strategy, env.emitter, nil, discardLogger())
}

func TestTransform_TasksPersisted(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")
	svc := newTransformService(env, transform.Strategy{Fallback: transform.TemplateGenerator{}})

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Research market size, build prototype"})
	require.NoError(t, err)

	result, err := svc.Transform(ctx, owner.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindTasks})
	require.NoError(t, err)
	assert.Equal(t, "template", result.Generator)
	assert.Equal(t, transform.KindTasks, result.OutputKind)
	assert.NotEmpty(t, result.TransformedContent)
	assert.Contains(t, result.TransformedContent, "Research market size, build prototype")

	got, err := env.ideas.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, result.TransformedContent, got.TransformedOutput)
	assert.Equal(t, "tasks", got.TransformedKind)
	assert.Equal(t, idea.Content, got.Content)

	assert.Equal(t, events.TypeIdeaTransformed, env.published.Types()[len(env.published.Types())-1])
}

func TestTransform_SecondKindOverwrites(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")
	svc := newTransformService(env, transform.Strategy{Fallback: transform.TemplateGenerator{}})

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Smart compost bin"})
	require.NoError(t, err)

	_, err = svc.Transform(ctx, owner.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindContent})
	require.NoError(t, err)
	second, err := svc.Transform(ctx, owner.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindIP})
	require.NoError(t, err)

	got, err := env.ideas.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, second.TransformedContent, got.TransformedOutput)
	assert.Equal(t, "ip", got.TransformedKind)
	assert.Contains(t, got.TransformedOutput, "Intellectual Property")
}

func TestTransform_FallsBackWhenPrimaryUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	primary := unavailable("xai")
	fallback := &stubGenerator{name: "template", out: "fallback output"}
	svc := newTransformService(env, transform.Strategy{Primary: primary, Fallback: fallback})

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Offline idea"})
	require.NoError(t, err)

	result, err := svc.Transform(ctx, owner.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindContent})
	require.NoError(t, err)
	assert.Equal(t, "template", result.Generator)
	assert.Equal(t, "fallback output", result.TransformedContent)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load())
}

func TestTransform_PrimaryServes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	primary := &stubGenerator{name: "openai"}
	fallback := &stubGenerator{name: "template"}
	svc := newTransformService(env, transform.Strategy{Primary: primary, Fallback: fallback})

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Modelled idea"})
	require.NoError(t, err)

	result, err := svc.Transform(ctx, owner.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindIP})
	require.NoError(t, err)
	assert.Equal(t, "openai", result.Generator)
	assert.Equal(t, "openai:ip:Modelled idea", result.TransformedContent)
	assert.Zero(t, fallback.calls.Load())
}

func TestTransform_AllGeneratorsUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")
	svc := newTransformService(env, transform.Strategy{Primary: unavailable("xai"), Fallback: unavailable("openai")})

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Doomed"})
	require.NoError(t, err)

	_, err = svc.Transform(ctx, owner.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindTasks})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUpstream)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, 502, domainErr.HTTPStatus())

	got, err := env.ideas.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TransformedOutput)
}

func TestTransform_NotFoundAndValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "auth0|alice")
	bob := env.createUser(t, "auth0|bob")
	svc := newTransformService(env, transform.Strategy{Fallback: transform.TemplateGenerator{}})

	idea, err := env.ideas.CreateIdea(ctx, alice.ID, CreateIdeaRequest{Content: "Alice's idea"})
	require.NoError(t, err)

	_, err = svc.Transform(ctx, bob.ID, TransformRequest{IdeaID: idea.ID, OutputKind: transform.KindTasks})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Transform(ctx, alice.ID, TransformRequest{IdeaID: "idea-missing", OutputKind: transform.KindTasks})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Transform(ctx, alice.ID, TransformRequest{IdeaID: idea.ID, OutputKind: "poem"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Transform(ctx, alice.ID, TransformRequest{OutputKind: transform.KindTasks})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	got, err := env.ideas.GetIdea(ctx, alice.ID, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TransformedOutput)
}
