package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/domain"
	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/store"
)

func TestCreateIdea_RoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	for _, content := range []string{"Build a rocket telescope", "  padded  ", "émoji 🚀 ünïcode", strings.Repeat("x", domain.MaxContentLength)} {
		created, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: content, Source: domain.SourceWebForm})
		require.NoError(t, err)

		got, err := env.ideas.GetIdea(ctx, owner.ID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(content), got.Content)
		assert.Equal(t, domain.SourceWebForm, got.Source)
		assert.Equal(t, owner.ID, got.OwnerID)
		assert.Empty(t, got.TransformedOutput)
		assert.True(t, strings.HasPrefix(got.ID, "idea-"))
	}
}

func TestCreateIdea_DefaultsSourceToManual(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(context.Background(), owner.ID, CreateIdeaRequest{Content: "Plain idea"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, idea.Source)
}

func TestCreateIdea_ValidationPersistsNothing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	tests := []struct {
		name  string
		req   CreateIdeaRequest
		field string
	}{
		{"empty content", CreateIdeaRequest{Content: ""}, "content"},
		{"blank content", CreateIdeaRequest{Content: " \n "}, "content"},
		{"too long", CreateIdeaRequest{Content: strings.Repeat("x", domain.MaxContentLength+1)}, "content"},
		{"unknown source", CreateIdeaRequest{Content: "ok", Source: "carrier-pigeon"}, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ideas.CreateIdea(ctx, owner.ID, tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Contains(t, domainErr.Details, tt.field)
		})
	}
	assert.Zero(t, env.countIdeas(t, owner.ID))
	assert.Empty(t, env.published.Events())
}

func TestCreateIdea_StoresClassifierLabels(t *testing.T) {
	classifier := classify.Func(func(context.Context, string) (domain.Classification, error) {
		return domain.Classification{Project: " Rocket ", Emotion: "excited"}, nil
	})
	env := setupTestEnv(t, withClassifier(classifier))
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(context.Background(), owner.ID, CreateIdeaRequest{Content: "Build a rocket"})
	require.NoError(t, err)

	got, err := env.ideas.GetIdea(context.Background(), owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rocket", got.Project)
	assert.Empty(t, got.Theme)
	assert.Equal(t, "excited", got.Emotion)
}

func TestCreateIdea_ClassifierTimeoutStillCreatesUnclassified(t *testing.T) {
	var calls atomic.Int32
	slow := classify.Func(func(ctx context.Context, _ string) (domain.Classification, error) {
		calls.Add(1)
		select {
		case <-ctx.Done():
			return domain.Classification{}, ctx.Err()
		case <-time.After(5 * time.Second):
			return domain.Classification{Project: "Too Late"}, nil
		}
	})
	env := setupTestEnv(t, withClassifier(classify.WithTimeout(slow, 20*time.Millisecond)))
	owner := env.createUser(t, "auth0|ada")

	start := time.Now()
	idea, err := env.ideas.CreateIdea(context.Background(), owner.ID, CreateIdeaRequest{Content: "An idea during an outage"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), calls.Load())

	got, err := env.ideas.GetIdea(context.Background(), owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Project)
	assert.Empty(t, got.Theme)
	assert.Empty(t, got.Emotion)
}

func TestCreateIdea_ClassifierErrorSwallowed(t *testing.T) {
	failing := classify.Func(func(context.Context, string) (domain.Classification, error) {
		return domain.Classification{}, errors.New("malformed response")
	})
	env := setupTestEnv(t, withClassifier(failing))
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(context.Background(), owner.ID, CreateIdeaRequest{Content: "Still saved"})
	require.NoError(t, err)
	assert.True(t, idea.Classification().IsEmpty())
}

func TestCreateIdea_EmitsEvent(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(context.Background(), owner.ID, CreateIdeaRequest{Content: "Eventful", Source: domain.SourceAPI})
	require.NoError(t, err)

	published := env.published.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeIdeaCreated, published[0].Type)
	assert.Equal(t, idea.ID, published[0].IdeaID)
	assert.Equal(t, owner.ID, published[0].OwnerID)
}

func TestDeleteIdea_ThenNotFound(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "auth0|alice")
	bob := env.createUser(t, "auth0|bob")

	idea, err := env.ideas.CreateIdea(ctx, alice.ID, CreateIdeaRequest{Content: "Secret plan"})
	require.NoError(t, err)

	// Another owner sees NotFound even before deletion.
	_, err = env.ideas.GetIdea(ctx, bob.ID, idea.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.ErrorIs(t, env.ideas.DeleteIdea(ctx, bob.ID, idea.ID), domainerrors.ErrNotFound)
	_, err = env.ideas.UpdateIdea(ctx, bob.ID, idea.ID, UpdateIdeaRequest{Project: ptr("Stolen")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, env.ideas.DeleteIdea(ctx, alice.ID, idea.ID))

	_, err = env.ideas.GetIdea(ctx, alice.ID, idea.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.ErrorIs(t, env.ideas.DeleteIdea(ctx, alice.ID, idea.ID), domainerrors.ErrNotFound)

	assert.Equal(t, []events.Type{events.TypeIdeaCreated, events.TypeIdeaDeleted}, env.published.Types())
}

func TestNotFound_IsUniform(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "auth0|alice")
	bob := env.createUser(t, "auth0|bob")

	idea, err := env.ideas.CreateIdea(ctx, alice.ID, CreateIdeaRequest{Content: "Mine"})
	require.NoError(t, err)

	_, foreign := env.ideas.GetIdea(ctx, bob.ID, idea.ID)
	_, unknown := env.ideas.GetIdea(ctx, bob.ID, "idea-does-not-exist")
	assert.Equal(t, foreign.Error(), unknown.Error())
}

func TestUpdateIdea(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Draft"})
	require.NoError(t, err)

	updated, err := env.ideas.UpdateIdea(ctx, owner.ID, idea.ID, UpdateIdeaRequest{
		Content: ptr("  Final  "),
		Project: ptr("Vault"),
		Emotion: ptr("happy"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Content)
	assert.Equal(t, "Vault", updated.Project)
	assert.Equal(t, "happy", updated.Emotion)

	// An empty label clears it; omitted fields are untouched.
	updated, err = env.ideas.UpdateIdea(ctx, owner.ID, idea.ID, UpdateIdeaRequest{Project: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, updated.Project)
	assert.Equal(t, "happy", updated.Emotion)
	assert.Equal(t, "Final", updated.Content)
}

func TestUpdateIdea_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Draft"})
	require.NoError(t, err)

	for name, req := range map[string]UpdateIdeaRequest{
		"blank content":  {Content: ptr("   ")},
		"empty content":  {Content: ptr("")},
		"long project":   {Project: ptr(strings.Repeat("p", 101))},
		"long emotion":   {Emotion: ptr(strings.Repeat("e", 51))},
		"long theme":     {Theme: ptr(strings.Repeat("t", 101))},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.ideas.UpdateIdea(ctx, owner.ID, idea.ID, req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}

	got, err := env.ideas.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Content)
}

func TestListIdeas_ProjectFilterKeepsOrder(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")
	other := env.createUser(t, "auth0|other")

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rocket := domain.Classification{Project: "Rocket"}
	env.insertIdea(t, owner.ID, "idea-1", "first", base, rocket)
	env.insertIdea(t, owner.ID, "idea-2", "second", base.Add(time.Hour), domain.Classification{})
	env.insertIdea(t, owner.ID, "idea-3", "third", base.Add(2*time.Hour), rocket)
	env.insertIdea(t, owner.ID, "idea-4", "fourth", base.Add(3*time.Hour), domain.Classification{Project: "Garden"})
	env.insertIdea(t, owner.ID, "idea-5", "fifth", base.Add(4*time.Hour), rocket)
	env.insertIdea(t, other.ID, "idea-6", "foreign", base.Add(5*time.Hour), rocket)

	ideas, total, err := env.ideas.ListIdeas(ctx, owner.ID, ListIdeasRequest{
		Filter: domain.IdeaFilter{Project: "Rocket"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"idea-5", "idea-3", "idea-1"}, ideaIDs(ideas))
	assert.Equal(t, 3, total)

	all, total, err := env.ideas.ListIdeas(ctx, owner.ID, ListIdeasRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"idea-5", "idea-4", "idea-3", "idea-2", "idea-1"}, ideaIDs(all))

	page, total, err := env.ideas.ListIdeas(ctx, owner.ID, ListIdeasRequest{Page: store.Page{Skip: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"idea-4", "idea-3"}, ideaIDs(page))
}

func TestSearchIdeas_UsesIndex(t *testing.T) {
	env := setupTestEnv(t, withIndex())
	ctx := context.Background()
	alice := env.createUser(t, "auth0|alice")
	bob := env.createUser(t, "auth0|bob")

	rocket, err := env.ideas.CreateIdea(ctx, alice.ID, CreateIdeaRequest{Content: "Build a rocket telescope from scrap"})
	require.NoError(t, err)
	_, err = env.ideas.CreateIdea(ctx, alice.ID, CreateIdeaRequest{Content: "Plant tomatoes in the garden"})
	require.NoError(t, err)
	_, err = env.ideas.CreateIdea(ctx, bob.ID, CreateIdeaRequest{Content: "Rocket stove for camping"})
	require.NoError(t, err)

	results, err := env.ideas.SearchIdeas(ctx, alice.ID, "rocket", store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{rocket.ID}, ideaIDs(results))

	// Deleted ideas drop out of results.
	require.NoError(t, env.ideas.DeleteIdea(ctx, alice.ID, rocket.ID))
	results, err = env.ideas.SearchIdeas(ctx, alice.ID, "rocket", store.Page{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchIdeas_FallsBackWithoutIndex(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Solar powered kettle"})
	require.NoError(t, err)
	_, err = env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Wind turbine"})
	require.NoError(t, err)

	results, err := env.ideas.SearchIdeas(ctx, owner.ID, "KETTLE", store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{idea.ID}, ideaIDs(results))
}

func TestSearchIdeas_RequiresQuery(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "auth0|ada")

	_, err := env.ideas.SearchIdeas(context.Background(), owner.ID, "   ", store.Page{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestReclassifyIdea(t *testing.T) {
	var answer atomic.Value
	answer.Store(domain.Classification{})
	classifier := classify.Func(func(context.Context, string) (domain.Classification, error) {
		return answer.Load().(domain.Classification), nil
	})
	env := setupTestEnv(t, withClassifier(classifier))
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	idea, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Launch a podcast about gardening"})
	require.NoError(t, err)
	assert.True(t, idea.Classification().IsEmpty())

	answer.Store(domain.Classification{Theme: "Gardening", Emotion: "curious"})
	idea, err = env.ideas.ReclassifyIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gardening", idea.Theme)
	assert.Equal(t, "curious", idea.Emotion)
	assert.Contains(t, env.published.Types(), events.TypeIdeaClassified)

	// Empty answers keep existing labels.
	answer.Store(domain.Classification{})
	idea, err = env.ideas.ReclassifyIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gardening", idea.Theme)
}

func TestReindexIfFresh(t *testing.T) {
	env := setupTestEnv(t, withIndex())
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	// Write ideas behind the index's back, as if it had been wiped.
	env.store.SetSearchIndexer(store.NewNoopSearchIndexer())
	env.insertIdea(t, owner.ID, "idea-a", "Underwater kite", time.Now(), domain.Classification{})
	env.insertIdea(t, owner.ID, "idea-b", "Kite powered boat", time.Now(), domain.Classification{})

	count, err := env.search.DocumentCount()
	require.NoError(t, err)
	require.Zero(t, count)

	require.True(t, env.index.Fresh())
	require.NoError(t, env.search.ReindexIfFresh(ctx))

	count, err = env.search.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	results, err := env.search.Search(ctx, owner.ID, "kite", store.Page{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idea-a", "idea-b"}, ideaIDs(results))
}

func TestRebuild_DropsStaleDocuments(t *testing.T) {
	env := setupTestEnv(t, withIndex())
	ctx := context.Background()
	owner := env.createUser(t, "auth0|ada")

	kept, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Kite powered boat"})
	require.NoError(t, err)
	gone, err := env.ideas.CreateIdea(ctx, owner.ID, CreateIdeaRequest{Content: "Underwater kite"})
	require.NoError(t, err)

	// Delete behind the index's back so it keeps a stale document.
	env.store.SetSearchIndexer(store.NewNoopSearchIndexer())
	require.NoError(t, env.store.DeleteIdea(ctx, gone.ID, owner.ID))

	count, err := env.search.DocumentCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	require.NoError(t, env.search.Rebuild(ctx))

	count, err = env.search.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	results, err := env.search.Search(ctx, owner.ID, "kite", store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, ideaIDs(results))
}

func ptr[T any](v T) *T {
	return &v
}
