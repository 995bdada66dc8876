package api

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"success response", "200", map[string]string{"key": "value"}},
		{"created response", "201", map[string]string{"id": "123"}},
		{"no content response", "204", nil},
		{"not found error", "404", errors.New("idea not found")},
		{
			name:   "validation error with details",
			status: "422",
			input: &APIError{
				Code:    "VALIDATION",
				Message: "validation failed",
				Details: map[string]string{"content": "must not be blank"},
			},
		},
		{"internal server error", "500", errors.New("internal error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := marshalEnvelope(t, tt.status, tt.input)
			require.Contains(t, envelope, "v")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"content": "Rooftop garden"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope")
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("bad input"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope")
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "bad input", envelope.Error)
}

func TestEnvelopeTransformer_CodedError(t *testing.T) {
	apiErr := &APIError{
		Code:    "CONFLICT",
		Message: "email already in use",
		Details: []string{"email"},
	}

	result, err := EnvelopeTransformer(nil, "409", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "expected APIErrorEnvelope")
	assert.False(t, envelope.Success)
	assert.Equal(t, "CONFLICT", envelope.Code)
	assert.Equal(t, "email already in use", envelope.Message)
	assert.Equal(t, "email already in use", envelope.Error)
	assert.Equal(t, []string{"email"}, envelope.Details)
}

func TestEnvelopeTransformer_DomainErrorHidesCause(t *testing.T) {
	err := domainerrors.Upstream("transcription service unavailable", errors.New("dial tcp 10.0.0.5:443"))

	actual := marshalEnvelope(t, "502", err)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", actual["code"])
	assert.Equal(t, "transcription service unavailable", actual["error"])
	assert.NotContains(t, actual["message"], "10.0.0.5")
}

// Contract tests compare envelope shapes against the shared fixtures in
// testdata/envelope, which clients embed too.

func fixture(t *testing.T, name string) map[string]any {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	root := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

	data, err := os.ReadFile(filepath.Join(root, "testdata", "envelope", name))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func marshalEnvelope(t *testing.T, status string, v any) map[string]any {
	t.Helper()
	result, err := EnvelopeTransformer(nil, status, v)
	require.NoError(t, err)
	data, err := json.Marshal(result)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func assertSameKeys(t *testing.T, expected, actual map[string]any) {
	t.Helper()
	for key := range expected {
		assert.Contains(t, actual, key, "missing field %q", key)
	}
	for key := range actual {
		assert.Contains(t, expected, key, "unexpected field %q", key)
	}
}

func TestEnvelopeContract_Success(t *testing.T) {
	expected := fixture(t, "success.json")
	actual := marshalEnvelope(t, "200", map[string]string{"id": "idea-x", "content": "x"})

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected["v"], actual["v"])
	assert.Equal(t, expected["success"], actual["success"])
}

func TestEnvelopeContract_SuccessNullData(t *testing.T) {
	expected := fixture(t, "success_null_data.json")
	actual := marshalEnvelope(t, "204", nil)

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected["success"], actual["success"])
}

func TestEnvelopeContract_SimpleError(t *testing.T) {
	expected := fixture(t, "error_simple.json")
	actual := marshalEnvelope(t, "404", &APIError{Message: "Idea not found"})

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected, actual)
}

func TestEnvelopeContract_DetailedError(t *testing.T) {
	expected := fixture(t, "error_detailed.json")
	actual := marshalEnvelope(t, "422", &APIError{
		Code:    "VALIDATION",
		Message: "validation failed",
		Details: map[string]string{"content": "must not be blank"},
	})

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected, actual)
}

// Clients key on "v"; renaming it breaks them silently.
func TestEnvelopeContract_VersionFieldName(t *testing.T) {
	actual := marshalEnvelope(t, "200", nil)

	assert.Contains(t, actual, "v")
	assert.NotContains(t, actual, "version")
	assert.NotContains(t, actual, "Version")
}
