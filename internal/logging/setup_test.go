package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupHandlerText(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		emit     slog.Level
		expected bool
	}{
		{name: "trace passes debug", logLevel: "trace", emit: slog.LevelDebug, expected: true},
		{name: "debug passes debug", logLevel: "debug", emit: slog.LevelDebug, expected: true},
		{name: "info drops debug", logLevel: "info", emit: slog.LevelDebug, expected: false},
		{name: "info passes info", logLevel: "info", emit: slog.LevelInfo, expected: true},
		{name: "warn drops info", logLevel: "warn", emit: slog.LevelInfo, expected: false},
		{name: "warning drops info", logLevel: "warning", emit: slog.LevelInfo, expected: false},
		{name: "error drops warn", logLevel: "error", emit: slog.LevelWarn, expected: false},
		{name: "uppercase level", logLevel: "INFO", emit: slog.LevelInfo, expected: true},
		{name: "unknown defaults to info", logLevel: "bogus", emit: slog.LevelInfo, expected: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler := SetupHandlerText(tc.logLevel, buf)
			require.NotNil(t, handler)

			logger := slog.New(handler)
			logger.Log(context.Background(), tc.emit, "probe message")

			if tc.expected {
				assert.Contains(t, buf.String(), "probe message")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestSetupHandlerJSON(t *testing.T) {
	t.Run("emits JSON records", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := SetupHandlerJSON("info", buf)
		require.NotNil(t, handler)

		slog.New(handler).Info("json probe", "key", "value")

		line := strings.TrimSpace(buf.String())
		assert.True(t, strings.HasPrefix(line, "{"))
		assert.Contains(t, line, `"json probe"`)
		assert.Contains(t, line, `"key":"value"`)
	})

	t.Run("debug filtered at info level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := SetupHandlerJSON("info", buf)

		slog.New(handler).Debug("invisible")
		assert.Empty(t, buf.String())
	})
}

func TestSetupLogger(t *testing.T) {
	// Restore the default logger after mutating it.
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	SetupLogger("debug", "text")
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	SetupLogger("error", "json")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}
