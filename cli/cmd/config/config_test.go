package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sistemabuses/busadmin/cli/helpers"
	pkgconfig "github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/logger"
	testhelpers "github.com/sistemabuses/busadmin/test/helpers"
)

const apiURL = "http://127.0.0.1:9999/api"

func run(t *testing.T, ctx context.Context, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&bytes.Buffer{})
	c.SetArgs(args)
	err := c.ExecuteContext(ctx)
	return out.String(), err
}

func TestConfigShow(t *testing.T) {
	t.Run("Should print the redacted configuration as JSON", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, map[string]any{"api-url": apiURL, "token": "s3cr3t"})
		out, err := run(t, ctx, NewConfigShowCommand())
		require.NoError(t, err)

		assert.Equal(t, apiURL, gjson.Get(out, `config.api\.base_url`).String())
		assert.Equal(t, "[REDACTED]", gjson.Get(out, `config.session\.token`).String())
		assert.NotContains(t, out, "s3cr3t")
		assert.False(t, gjson.Get(out, "sources").Exists())
	})

	t.Run("Should report where each value came from", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, map[string]any{"api-url": apiURL})
		out, err := run(t, ctx, NewConfigShowCommand(), "--sources")
		require.NoError(t, err)

		assert.Equal(t, "cli", gjson.Get(out, `sources.api\.base_url`).String())
		assert.Equal(t, "default", gjson.Get(out, `sources.api\.retry_count`).String())
	})

	t.Run("Should print a table on request", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, map[string]any{"api-url": apiURL})
		out, err := run(t, ctx, NewConfigShowCommand(), "-o", "table", "--sources")
		require.NoError(t, err)

		assert.Contains(t, out, "Clave")
		assert.Contains(t, out, "Origen")
		assert.Contains(t, out, "api.base_url")
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		_, err := run(t, ctx, NewConfigShowCommand(), "-o", "xml")
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "INVALID_FORMAT", cliErr.Code)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("Should report a loaded configuration as valid", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		out, err := run(t, ctx, NewConfigValidateCommand())
		require.NoError(t, err)
		assert.True(t, gjson.Get(out, "valid").Bool())
	})
}

func TestConfigDiagnostics(t *testing.T) {
	t.Run("Should describe the session and validation state", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, map[string]any{"token": testhelpers.TestToken})
		out, err := run(t, ctx, NewConfigDiagnosticsCommand())
		require.NoError(t, err)

		assert.True(t, gjson.Get(out, "authenticated").Bool())
		assert.True(t, gjson.Get(out, "validation.valid").Bool())
		assert.False(t, gjson.Get(out, "session_file.exists").Bool())
		assert.NotEmpty(t, gjson.Get(out, "session_file.path").String())
		assert.Equal(t, gjson.Null, gjson.Get(out, "config_file").Type)
		assert.False(t, gjson.Get(out, "sources").Exists())
	})

	t.Run("Should check the YAML file and list sources when verbose", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "busadmin.yaml")
		require.NoError(t, os.WriteFile(file, []byte("api:\n  auth_scheme: Bearer\n"), 0o600))

		ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
		manager := pkgconfig.NewManager(nil)
		_, err := manager.Load(ctx,
			pkgconfig.NewYAMLProvider(file),
			pkgconfig.NewCLIProvider(map[string]any{
				"format":       "json",
				"session-file": filepath.Join(dir, "session.yaml"),
				"log-level":    "disabled",
			}),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = manager.Close(ctx) })
		ctx = pkgconfig.ContextWithManager(ctx, manager)

		out, err := run(t, ctx, NewConfigDiagnosticsCommand(), "--verbose")
		require.NoError(t, err)

		assert.Equal(t, file, gjson.Get(out, "config_file.path").String())
		assert.True(t, gjson.Get(out, "config_file.exists").Bool())
		assert.False(t, gjson.Get(out, "authenticated").Bool())
		assert.Equal(t, "yaml", gjson.Get(out, `sources.api\.auth_scheme`).String())
	})
}

func TestRedactURL(t *testing.T) {
	t.Run("Should hide credentials and token parameters", func(t *testing.T) {
		assert.Equal(t, "https://[REDACTED]@buses.example/api", redactURL("https://admin:pw@buses.example/api"))
		assert.Equal(t, "https://buses.example/api?token=[REDACTED]&x=1", redactURL("https://buses.example/api?token=abc&x=1"))
		assert.Equal(t, apiURL, redactURL(apiURL))
	})
}
