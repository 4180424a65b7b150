package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemabuses/busadmin/pkg/config/definition"
)

func TestLoader_Load(t *testing.T) {
	t.Run("Should load default configuration when no sources provided", func(t *testing.T) {
		cfg, err := NewService().Load(t.Context())

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "http://127.0.0.1:8000/api", cfg.API.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.API.Timeout)
		assert.Equal(t, "Token", cfg.API.AuthScheme)
		assert.Equal(t, "reject", cfg.CLI.DoubleOpen)
		assert.Equal(t, "auto", cfg.CLI.DefaultFormat)
		assert.Equal(t, "info", cfg.Runtime.LogLevel)
	})

	t.Run("Should apply sources in precedence order", func(t *testing.T) {
		yamlSource := &mockSource{
			data: map[string]any{
				"api": map[string]any{
					"base_url":    "http://yaml.example.com/api",
					"retry_count": 4,
				},
			},
			sourceType: SourceYAML,
		}
		cliSource := &mockSource{
			data: map[string]any{
				"api": map[string]any{"base_url": "http://cli.example.com/api"},
			},
			sourceType: SourceCLI,
		}
		svc := NewService()

		cfg, err := svc.Load(t.Context(), yamlSource, cliSource)

		require.NoError(t, err)
		assert.Equal(t, "http://cli.example.com/api", cfg.API.BaseURL)
		assert.Equal(t, 4, cfg.API.RetryCount)
		assert.Equal(t, SourceCLI, svc.GetSource("api.base_url"))
		assert.Equal(t, SourceYAML, svc.GetSource("api.retry_count"))
		assert.Equal(t, SourceDefault, svc.GetSource("api.timeout"))
	})

	t.Run("Should let environment override every other source", func(t *testing.T) {
		t.Setenv("BUSADMIN_API_URL", "https://env.example.com/api")
		t.Setenv("BUSADMIN_TOKEN", "env-token")
		t.Setenv("BUSADMIN_API_RETRY_WAIT", "50ms")
		cliSource := &mockSource{
			data:       map[string]any{"api": map[string]any{"base_url": "http://cli.example.com/api"}},
			sourceType: SourceCLI,
		}
		svc := NewService()

		cfg, err := svc.Load(t.Context(), cliSource)

		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com/api", cfg.API.BaseURL)
		assert.Equal(t, "env-token", cfg.Session.Token.Value())
		assert.Equal(t, 50*time.Millisecond, cfg.API.RetryWait)
		assert.Equal(t, SourceEnv, svc.GetSource("api.base_url"))
	})

	t.Run("Should reject an invalid base URL", func(t *testing.T) {
		source := &mockSource{
			data:       map[string]any{"api": map[string]any{"base_url": "not a url"}},
			sourceType: SourceYAML,
		}

		_, err := NewService().Load(t.Context(), source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Should reject an unknown auth scheme", func(t *testing.T) {
		source := &mockSource{
			data:       map[string]any{"api": map[string]any{"auth_scheme": "Basic"}},
			sourceType: SourceYAML,
		}

		_, err := NewService().Load(t.Context(), source)

		require.Error(t, err)
	})

	t.Run("Should reject retry wait longer than the timeout", func(t *testing.T) {
		source := &mockSource{
			data: map[string]any{"api": map[string]any{
				"timeout":    "1s",
				"retry_wait": "5s",
			}},
			sourceType: SourceYAML,
		}

		_, err := NewService().Load(t.Context(), source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry_wait")
	})

	t.Run("Should surface source load failures", func(t *testing.T) {
		source := &mockSource{loadErr: errors.New("boom"), sourceType: SourceYAML}

		_, err := NewService().Load(t.Context(), source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestYAMLProvider(t *testing.T) {
	t.Run("Should read nested values and skip nil leaves", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "busadmin.yaml")
		content := "api:\n  base_url: http://fleet.local/api\n  timeout: 3s\ncli:\n  double_open:\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := NewService().Load(t.Context(), NewYAMLProvider(path))

		require.NoError(t, err)
		assert.Equal(t, "http://fleet.local/api", cfg.API.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.API.Timeout)
		assert.Equal(t, "reject", cfg.CLI.DoubleOpen)
	})

	t.Run("Should treat a missing file as empty", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "absent.yaml")).Load()

		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestCLIProvider(t *testing.T) {
	t.Run("Should map flag names to config paths", func(t *testing.T) {
		provider := NewCLIProvider(map[string]any{
			"api-url":     "http://flags.local/api",
			"double-open": "replace",
			"unknown":     true,
		})

		data, err := provider.Load()

		require.NoError(t, err)
		assert.Equal(t, "http://flags.local/api", data["api"].(map[string]any)["base_url"])
		assert.Equal(t, "replace", data["cli"].(map[string]any)["double_open"])
		assert.NotContains(t, data, "unknown")
	})
}

func TestFields(t *testing.T) {
	t.Run("Should resolve environment variables from the registry", func(t *testing.T) {
		assert.Equal(t, "BUSADMIN_TOKEN", EnvVarFor("session.token"))
		assert.Equal(t, "BUSADMIN_API_URL", EnvVarFor("api.base_url"))
		assert.Empty(t, EnvVarFor("api.missing"))
	})

	t.Run("Should flag sensitive paths", func(t *testing.T) {
		assert.True(t, IsSensitive("session.token"))
		assert.False(t, IsSensitive("api.base_url"))
		assert.False(t, IsSensitive("session.token.extra"))
		assert.False(t, IsSensitive("nope"))
	})

	t.Run("Should flatten every leaf with secrets redacted", func(t *testing.T) {
		cfg := Default()
		cfg.Session.Token = "tok-abc"
		cfg.API.Timeout = 3 * time.Second

		flat := Flatten(cfg)

		assert.Equal(t, "[REDACTED]", flat["session.token"])
		assert.Equal(t, "3s", flat["api.timeout"])
		assert.Equal(t, "false", flat["api.debug"])
		assert.Equal(t, "2", flat["api.retry_count"])
		assert.Len(t, flat, len(definitionPaths()))
	})
}

// mockSource is a test implementation of the Source interface
type mockSource struct {
	data       map[string]any
	sourceType SourceType
	loadErr    error
}

func (m *mockSource) Load() (map[string]any, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *mockSource) Watch(_ context.Context, _ func()) error {
	return nil
}

func (m *mockSource) Type() SourceType {
	return m.sourceType
}

func (m *mockSource) Close() error {
	return nil
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Should use the registry name", input: "BUSADMIN_API_URL", expected: "api.base_url"},
		{name: "Should strip the prefix", input: "BUSADMIN_API_RETRY_COUNT", expected: "api.retry_count"},
		{name: "Should handle single part", input: "BUSADMIN_PORT", expected: "port"},
		{name: "Should handle empty string", input: "", expected: ""},
		{name: "Should handle double underscore", input: "BUSADMIN_API__DEBUG", expected: "api.debug"},
		{name: "Should handle only underscores", input: "___", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, envKey(tt.input))
		})
	}
}

func definitionPaths() []string {
	var paths []string
	for _, f := range definition.CreateRegistry().Fields() {
		paths = append(paths, f.Path)
	}
	return paths
}
