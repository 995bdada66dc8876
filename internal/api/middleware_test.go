package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainvault/brainvault-server/internal/logger"
)

func TestRequestLogger_ScopesLoggerToRequest(t *testing.T) {
	var logs bytes.Buffer
	base := slog.New(slog.NewTextHandler(&logs, nil))

	var scoped *slog.Logger
	handler := middleware.RequestID(requestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = logger.FromContext(r.Context(), nil)
		scoped.Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-77")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, scoped)
	assert.NotSame(t, base, scoped)
	assert.Contains(t, logs.String(), `msg="inside handler" request_id=req-77`)
	assert.Contains(t, logs.String(), "status=418")
}
