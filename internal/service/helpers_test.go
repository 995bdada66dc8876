package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/search"
	"github.com/brainvault/brainvault-server/internal/store/sqlstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store     *sqlstore.Store
	index     *search.IdeaIndex
	search    *SearchService
	published *events.MemoryPublisher
	emitter   *events.Emitter
	ideas     *IdeaService
}

type envOption func(*envConfig)

type envConfig struct {
	classifier classify.Classifier
	withIndex  bool
}

func withClassifier(c classify.Classifier) envOption {
	return func(cfg *envConfig) { cfg.classifier = c }
}

func withIndex() envOption {
	return func(cfg *envConfig) { cfg.withIndex = true }
}

// setupTestEnv opens a temp SQLite store and wires an IdeaService over it.
func setupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}

	dir := t.TempDir()
	logger := discardLogger()

	st, err := sqlstore.OpenSQLite(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	env := &testEnv{store: st}

	if cfg.withIndex {
		idx, err := search.NewIdeaIndex(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
		require.NoError(t, err)
		t.Cleanup(func() { _ = idx.Close() })
		st.SetSearchIndexer(idx)
		env.index = idx
	}

	env.search = NewSearchService(env.index, st, logger)
	env.published = &events.MemoryPublisher{}
	env.emitter = events.NewEmitter(env.published, logger, nil)
	env.ideas = NewIdeaService(st, env.search, cfg.classifier, env.emitter, nil, logger)
	return env
}

func (e *testEnv) createUser(t *testing.T, subject string) *domain.User {
	t.Helper()
	u, _, err := e.store.GetOrCreateUserByExternalID(context.Background(), subject, "")
	require.NoError(t, err)
	return u
}

// insertIdea writes an idea directly with a fixed timestamp.
func (e *testEnv) insertIdea(t *testing.T, ownerID, ideaID, content string, at time.Time, labels domain.Classification) *domain.Idea {
	t.Helper()
	idea := &domain.Idea{
		ID:        ideaID,
		OwnerID:   ownerID,
		Content:   content,
		Source:    domain.SourceManual,
		Project:   labels.Project,
		Theme:     labels.Theme,
		Emotion:   labels.Emotion,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, e.store.CreateIdea(context.Background(), idea))
	return idea
}

func (e *testEnv) countIdeas(t *testing.T, ownerID string) int {
	t.Helper()
	n, err := e.store.CountIdeas(context.Background(), ownerID, domain.IdeaFilter{})
	require.NoError(t, err)
	return n
}

func ideaIDs(ideas []*domain.Idea) []string {
	ids := make([]string, len(ideas))
	for i, idea := range ideas {
		ids[i] = idea.ID
	}
	return ids
}
