package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
	assert.Equal(t, "0 connected clients", env.Data.Components["live_feed"].Message)
	assert.False(t, env.Data.Timestamp.IsZero())
}

func TestHealthCheck_IgnoresBadToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health", "Authorization: Bearer garbage")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.Equal(t, "unhealthy", env.Data.Status)
	assert.Equal(t, "unhealthy", env.Data.Components["database"].Status)
}
