package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodeUpstream, http.StatusBadGateway},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
			assert.Equal(t, tt.want, (&Error{Code: tt.code}).GetStatus())
		})
	}
}

func TestError_MessageHidesCause(t *testing.T) {
	cause := New("dial tcp: connection refused")
	err := Upstream("transcription failed", cause)

	assert.Equal(t, "transcription failed", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("get idea: %w", NotFound("Idea not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)

	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "Idea not found", domainErr.Message)
}

func TestError_WithDetailsCopies(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"content": "must not be blank"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"content": "must not be blank"}, detailed.Details)
	assert.Equal(t, CodeValidation, detailed.Code)
}

func TestWrapf(t *testing.T) {
	cause := New("disk full")
	err := Wrapf(cause, CodeInternal, "save idea %s", "idea-1")

	assert.Equal(t, "save idea idea-1", err.Message)
	assert.Equal(t, "save idea idea-1: disk full", err.Error())
	assert.ErrorIs(t, err, ErrInternal)
}
