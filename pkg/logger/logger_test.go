package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)

		actual := FromContext(ctx)

		require.NotNil(t, actual)
		assert.Equal(t, expected, actual)
	})

	t.Run("Should return default logger when no logger in context", func(t *testing.T) {
		l := FromContext(t.Context())
		require.NotNil(t, l)
	})

	t.Run("Should return default logger when wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")
		require.NotNil(t, FromContext(ctx))
	})

	t.Run("Should return default logger for nil context", func(t *testing.T) {
		//nolint:staticcheck // nil context is part of the contract
		require.NotNil(t, FromContext(nil))
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should convert all log levels to charm log levels correctly", func(t *testing.T) {
		testCases := []struct {
			level    LogLevel
			expected charmlog.Level
		}{
			{DebugLevel, charmlog.DebugLevel},
			{InfoLevel, charmlog.InfoLevel},
			{WarnLevel, charmlog.WarnLevel},
			{ErrorLevel, charmlog.ErrorLevel},
			{NoLevel, charmlog.InfoLevel},
			{LogLevel("verbose"), charmlog.InfoLevel},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, tc.level.ToCharmlogLevel(), "level %q", tc.level)
		}
	})

	t.Run("Should place disabled level above fatal", func(t *testing.T) {
		assert.Greater(t, DisabledLevel.ToCharmlogLevel(), charmlog.FatalLevel)
	})
}

func TestParseLevel(t *testing.T) {
	t.Run("Should parse levels case-insensitively", func(t *testing.T) {
		assert.Equal(t, DebugLevel, ParseLevel(" DEBUG "))
		assert.Equal(t, WarnLevel, ParseLevel("warn"))
		assert.Equal(t, DisabledLevel, ParseLevel("disabled"))
		assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write JSON entries with key values", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})

		l.With("resource", "buses").Info("loaded", "count", 3)

		out := buf.String()
		assert.Contains(t, out, `"msg":"loaded"`)
		assert.Contains(t, out, `"resource":"buses"`)
		assert.Contains(t, out, `"count":3`)
	})

	t.Run("Should drop entries below configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

		l.Info("hidden")
		l.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Should stay silent for test loggers", func(t *testing.T) {
		l := NewForTests()
		l.Error("nothing to see")
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("Should write to the configured log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "busadmin.log")

		l, closer, err := SetupLogger(Options{Level: "info", File: path})
		require.NoError(t, err)
		l.Info("file sink ready")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "file sink ready"))
		Init(TestConfig())
	})

	t.Run("Should discard output when file is dash", func(t *testing.T) {
		l, closer, err := SetupLogger(Options{Level: "debug", File: "-"})
		require.NoError(t, err)
		l.Debug("discarded")
		assert.NoError(t, closer.Close())
		Init(TestConfig())
	})
}

func TestSetLevel(t *testing.T) {
	t.Run("Should raise the level of a package logger", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf})

		require.True(t, SetLevel(l, ErrorLevel))
		l.Warn("muted")
		l.Error("loud")

		assert.NotContains(t, buf.String(), "muted")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("Should refuse foreign loggers", func(t *testing.T) {
		assert.False(t, SetLevel(nil, DebugLevel))
	})
}
