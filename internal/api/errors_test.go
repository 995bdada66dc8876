package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/store"
)

// brokenListStore fails every listing with a low-level error.
type brokenListStore struct {
	store.Store
	err error
}

func (b brokenListStore) ListIdeas(context.Context, string, domain.IdeaFilter, store.Page) ([]*domain.Idea, error) {
	return nil, b.err
}

func TestUnexpectedError_LoggedButNotExposed(t *testing.T) {
	var logs bytes.Buffer
	ts := setupTestServer(t,
		withLogOutput(&logs),
		withStore(func(s store.Store) store.Store {
			return brokenListStore{Store: s, err: errors.New("disk I/O error at page 42")}
		}),
	)
	alice := ts.bearer(t, "alice")

	resp := ts.api.Get("/api/v1/ideas", alice)
	require.Equal(t, http.StatusInternalServerError, resp.Code, resp.Body.String())

	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Equal(t, "internal server error", env.Message)
	assert.NotContains(t, resp.Body.String(), "disk I/O")

	var errLine string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "unhandled API error") {
			errLine = line
		}
	}
	require.NotEmpty(t, errLine, logs.String())
	assert.Contains(t, errLine, "disk I/O error at page 42")
	assert.Contains(t, errLine, "request_id=")
}
