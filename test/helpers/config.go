package helpers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// ConfigContext returns a context carrying a test logger and a config
// manager loaded from flags. JSON mode and a private session file are
// preset; flags overrides them by flag name.
func ConfigContext(t *testing.T, flags map[string]any) context.Context {
	t.Helper()
	ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
	merged := map[string]any{
		"format":       "json",
		"session-file": filepath.Join(t.TempDir(), "session.yaml"),
		"log-level":    "disabled",
		"no-color":     true,
	}
	for k, v := range flags {
		merged[k] = v
	}
	manager := config.NewManager(nil)
	_, err := manager.Load(ctx, config.NewCLIProvider(merged))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = manager.Close(ctx)
	})
	return config.ContextWithManager(ctx, manager)
}
