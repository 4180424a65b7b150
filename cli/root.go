package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	authcmd "github.com/sistemabuses/busadmin/cli/cmd/auth"
	configcmd "github.com/sistemabuses/busadmin/cli/cmd/config"
	"github.com/sistemabuses/busadmin/cli/cmd/dashboard"
	"github.com/sistemabuses/busadmin/cli/cmd/resource"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/config/definition"
	"github.com/sistemabuses/busadmin/pkg/logger"
	"github.com/sistemabuses/busadmin/pkg/version"
)

type runtimeKey struct{}

// runtimeState holds what SetupGlobalConfig opened for one invocation.
type runtimeState struct {
	manager   *config.Manager
	logCloser io.Closer
	closeOnce sync.Once
}

func (s *runtimeState) close(ctx context.Context) {
	s.closeOnce.Do(func() {
		if s.manager != nil {
			_ = s.manager.Close(ctx)
		}
		if s.logCloser != nil {
			_ = s.logCloser.Close()
		}
	})
}

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "busadmin",
		Short:   "Administración del Sistema de Buses",
		Version: version.Get().String(),
		Long: `busadmin administra trabajadores, buses, roles y sus asignaciones
contra la API REST del Sistema de Buses.

Sin argumentos de formato, los comandos abren una interfaz interactiva en
terminales y emiten JSON en scripts y CI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			CloseGlobalConfig(cmd)
		},
	}
	addGlobalFlags(root, definition.CreateRegistry())

	root.AddCommand(
		authcmd.NewLoginCommand(),
		authcmd.NewLogoutCommand(),
		authcmd.NewWhoamiCommand(),
		dashboard.NewDashboardCommand(),
		configcmd.NewConfigCommand(),
	)
	root.AddCommand(resource.NewCommands()...)
	return root
}

// Execute runs the root command and releases everything SetupGlobalConfig
// opened, also when the command fails.
func Execute(ctx context.Context) error {
	cmd, err := RootCmd().ExecuteContextC(ctx)
	if cmd != nil {
		CloseGlobalConfig(cmd)
	}
	return err
}

// SetupGlobalConfig loads the .env file and the configuration, installs the
// logger and stores both in the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	envPath, err := loadEnvFile(cmd)
	if err != nil {
		return err
	}

	registry := definition.CreateRegistry()
	flags := make(map[string]any)
	extractCLIFlags(cmd, registry, flags)

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if configFile == "" {
		configFile = config.DefaultConfigFile()
	}
	sources := make([]config.Source, 0, 2)
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewCLIProvider(flags))

	manager := config.NewManager(nil)
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		_ = manager.Close(ctx)
		return err
	}

	opts := logOptions(cfg)
	log, closer, err := logger.SetupLogger(opts)
	if err != nil {
		_ = manager.Close(ctx)
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if !helpers.ShouldUseColor(cfg) {
		styles.Disable()
	}
	manager.OnChange(func(next *config.Config) {
		logger.SetLevel(log, logger.ParseLevel(next.Runtime.LogLevel))
		log.Info("configuration reloaded", "log_level", next.Runtime.LogLevel)
	})
	log.Debug("configuration loaded", "config_file", configFile, "env_file", envPath, "api", cfg.API.BaseURL)

	state := &runtimeState{manager: manager, logCloser: closer}
	ctx = context.WithValue(ctx, runtimeKey{}, state)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	cmd.SetContext(ctx)
	return nil
}

// logOptions keeps the terminal clean for full-screen interfaces by
// discarding logs unless a log file is configured.
func logOptions(cfg *config.Config) logger.Options {
	opts := logger.Options{
		Level:  cfg.Runtime.LogLevel,
		JSON:   cfg.Runtime.LogJSON,
		Source: cfg.Runtime.LogSource,
		File:   cfg.Runtime.LogFile,
	}
	if opts.File == "" && helpers.ModeFor(cfg) == models.ModeTUI {
		opts.File = "-"
	}
	return opts
}

// CloseGlobalConfig stops config watchers and closes the log sink opened by
// SetupGlobalConfig. It is safe to call more than once.
func CloseGlobalConfig(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		return
	}
	if state, ok := ctx.Value(runtimeKey{}).(*runtimeState); ok {
		state.close(ctx)
	}
}
