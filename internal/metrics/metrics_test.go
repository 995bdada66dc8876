package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsSingleton(t *testing.T) {
	assert.Same(t, New(), New())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "/ideas", "200", 0.1)
		m.RecordIdeaCreated("manual")
		m.RecordIdeaDeleted()
		m.RecordUpstreamCall("classifier", "ok", 0.2)
		m.SetBreakerState("llm", 2)
		m.RecordTransformation("tasks", "template")
		m.RecordEvent("idea.created", nil)
		m.RecordVoiceUpload(10)
	})
}

func TestRecorders(t *testing.T) {
	m := New()

	before := testutil.ToFloat64(m.IdeasCreatedTotal.WithLabelValues("voice"))
	m.RecordIdeaCreated("voice")
	assert.InDelta(t, before+1, testutil.ToFloat64(m.IdeasCreatedTotal.WithLabelValues("voice")), 0.0001)

	m.SetBreakerState("test-breaker", 2)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("test-breaker")), 0.0001)

	failed := testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("idea.deleted", "error"))
	m.RecordEvent("idea.deleted", errors.New("broker down"))
	assert.InDelta(t, failed+1, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("idea.deleted", "error")), 0.0001)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	New().RecordTransformation("ip", "template")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "brainvault_transformations_total")
}
