package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/config/definition"
)

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should inject YAML values and let flags override them", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "busadmin.yaml")
		yaml := "api:\n  base_url: http://yaml.example/api\n  timeout: 3s\ncli:\n  double_open: replace\n"
		require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

		cmd := RootCmd()
		cmd.SetContext(context.Background())
		require.NoError(t, cmd.ParseFlags([]string{
			"--env-file", "",
			"--config", cfgPath,
			"--api-url", "http://flag.example/api",
			"--log-level", "disabled",
			"--format", "json",
		}))

		require.NoError(t, SetupGlobalConfig(cmd))
		t.Cleanup(func() { CloseGlobalConfig(cmd) })

		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, "http://flag.example/api", cfg.API.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.API.Timeout)
		assert.Equal(t, "replace", cfg.CLI.DoubleOpen)
		assert.NotNil(t, config.ManagerFromContext(cmd.Context()))
	})

	t.Run("Should fail on invalid configuration", func(t *testing.T) {
		cmd := RootCmd()
		cmd.SetContext(context.Background())
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "", "--double-open", "sometimes"}))
		assert.Error(t, SetupGlobalConfig(cmd))
	})

	t.Run("Should close idempotently", func(t *testing.T) {
		cmd := RootCmd()
		cmd.SetContext(context.Background())
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "", "--log-level", "disabled", "--format", "json"}))
		require.NoError(t, SetupGlobalConfig(cmd))
		CloseGlobalConfig(cmd)
		CloseGlobalConfig(cmd)
	})
}

func TestGlobalFlags(t *testing.T) {
	t.Run("Should register a flag for every registry field with a CLI name", func(t *testing.T) {
		cmd := RootCmd()
		for flagName := range definition.CreateRegistry().GetCLIFlagMapping() {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(flagName), flagName)
		}
		assert.Equal(t, "duration", cmd.PersistentFlags().Lookup("timeout").Value.Type())
		assert.Equal(t, "bool", cmd.PersistentFlags().Lookup("no-color").Value.Type())
	})

	t.Run("Should extract only changed flags", func(t *testing.T) {
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--timeout", "5s", "--debug"}))
		flags := map[string]any{}
		extractCLIFlags(cmd, definition.CreateRegistry(), flags)
		assert.Equal(t, map[string]any{"timeout": 5 * time.Second, "debug": true}, flags)
	})
}

func TestCommandTree(t *testing.T) {
	t.Run("Should expose every resource and session command", func(t *testing.T) {
		cmd := RootCmd()
		for _, name := range []string{
			"login", "logout", "whoami", "dashboard", "config",
			"workers", "buses", "roles", "role-assignments", "bus-assignments",
		} {
			found, _, err := cmd.Find([]string{name})
			require.NoError(t, err, name)
			assert.Equal(t, name, found.Name())
		}
	})
}

func TestIsPathWithinDirectory(t *testing.T) {
	t.Run("Should accept nested paths and reject escapes", func(t *testing.T) {
		dir := t.TempDir()
		assert.True(t, isPathWithinDirectory(filepath.Join(dir, ".env"), dir))
		assert.True(t, isPathWithinDirectory(dir, dir))
		assert.False(t, isPathWithinDirectory(filepath.Join(dir, "..", "other", ".env"), dir))
	})
}
