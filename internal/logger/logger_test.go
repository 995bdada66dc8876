package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CustomWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})
	log.Info("idea created")

	assert.Contains(t, buf.String(), "idea created")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{name: "production uses json", environment: "production", wantJSON: true},
		{name: "development uses pretty", environment: "development", wantJSON: false},
		{name: "staging uses pretty", environment: "staging", wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("test")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"test"`)
			} else {
				assert.NotContains(t, buf.String(), `"msg"`)
				assert.Contains(t, buf.String(), "INF")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.With("user_id", "user-1").WithGroup("idea").Info("saved", "id", "idea-1", "content", "two words")

	out := buf.String()
	assert.Contains(t, out, "saved")
	assert.Contains(t, out, "user_id=user-1")
	assert.Contains(t, out, "idea.id=idea-1")
	assert.Contains(t, out, `idea.content="two words"`)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLogger_WithHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Writer: &buf})

	log.WithError(errors.New("boom")).
		WithField("idea_id", "idea-9").
		WithFields(map[string]any{"kind": "tasks"}).
		Info("transform failed")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"idea_id":"idea-9"`)
	assert.Contains(t, out, `"kind":"tasks"`)
}

func TestContextLogger(t *testing.T) {
	fallback := slog.New(slog.DiscardHandler)
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := fallback.With("request_id", "abc")
	ctx := NewContext(context.Background(), scoped)
	got := FromContext(ctx, fallback)
	require.NotNil(t, got)
	assert.Same(t, scoped, got)
}
