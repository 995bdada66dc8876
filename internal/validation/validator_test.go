package validation_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/validation"
)

type ideaRequest struct {
	Content string `json:"content" validate:"required,notblank,max=10000"`
	Source  string `json:"source,omitempty" validate:"omitempty,oneof=manual web-form voice api"`
	Project string `json:"project,omitempty" validate:"omitempty,max=100"`
	Emotion string `json:"emotion,omitempty" validate:"omitempty,max=50"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(ideaRequest{Content: "Build a rocket", Source: "voice", Project: "Rocket"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       ideaRequest
		wantField string
		wantMsg   string
	}{
		{"missing content", ideaRequest{}, "content", "is required"},
		{"blank content", ideaRequest{Content: "   \n\t"}, "content", "must not be blank"},
		{"content too long", ideaRequest{Content: strings.Repeat("a", 10001)}, "content", "must not exceed 10000 characters"},
		{"unknown source", ideaRequest{Content: "x", Source: "fax"}, "source", "must be one of: manual web-form voice api"},
		{"project too long", ideaRequest{Content: "x", Project: strings.Repeat("p", 101)}, "project", "must not exceed 100 characters"},
		{"emotion too long", ideaRequest{Content: "x", Emotion: strings.Repeat("e", 51)}, "emotion", "must not exceed 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusUnprocessableEntity, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_MaxCountsCharactersNotBytes(t *testing.T) {
	v := validation.New()

	// 10000 multi-byte runes is within the limit.
	err := v.Validate(ideaRequest{Content: strings.Repeat("é", 10000)})
	assert.NoError(t, err)
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("q", "rocket", "required,notblank"))

	err := v.Var("q", "  ", "required,notblank")
	require.Error(t, err)
	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, map[string]string{"q": "must not be blank"}, domainErr.Details)
}
