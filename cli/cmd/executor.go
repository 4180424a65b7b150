package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/api"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/engine/fleet"
	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/crud"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// CommandExecutor handles common setup and execution patterns for CLI commands.
// It eliminates boilerplate code by providing a single place for:
// - Session and client creation
// - Mode detection
// - Context cancellation
// - Error handling
type CommandExecutor struct {
	mode    models.Mode
	cfg     *config.Config
	store   *api.SessionStore
	session *api.Session
	client  *api.Client
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ModeHandlers contains handlers for different execution modes.
type ModeHandlers struct {
	JSON HandlerFunc
	TUI  HandlerFunc
}

// ExecutorOptions allows customization of the command executor
type ExecutorOptions struct {
	// RequireAuth fails early when there is no token.
	RequireAuth bool
	// RequireClient builds an API client even without a session.
	RequireClient bool
}

// NewCommandExecutor creates a new command executor with all necessary setup.
func NewCommandExecutor(cmd *cobra.Command, opts ExecutorOptions) (*CommandExecutor, error) {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	cfg := config.FromContext(ctx)
	mode := helpers.ModeFor(cfg)
	log.Debug("detected execution mode", "mode", mode)

	store, err := api.NewSessionStore(cfg.Session.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	session, err := resolveSession(cfg, store)
	if err != nil {
		return nil, err
	}
	executor := &CommandExecutor{
		mode:    mode,
		cfg:     cfg,
		store:   store,
		session: session,
	}
	if opts.RequireAuth && !session.Authenticated() {
		return nil, helpers.NewAuthError("no hay una sesión activa; ejecute 'busadmin login'")
	}
	if opts.RequireAuth || opts.RequireClient {
		client, err := api.NewClient(cfg, session, api.WithOnUnauthorized(func() {
			if cfg.Session.Token.Value() != "" {
				return
			}
			if err := store.Clear(); err != nil {
				log.Warn("failed to clear rejected session", "error", err)
			}
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to create API client: %w", err)
		}
		executor.client = client
	}
	return executor, nil
}

// resolveSession prefers an explicit token over the stored session.
func resolveSession(cfg *config.Config, store *api.SessionStore) (*api.Session, error) {
	if token := cfg.Session.Token.Value(); token != "" {
		return &api.Session{Token: token}, nil
	}
	session, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// Execute runs the appropriate handler based on the detected mode.
func (e *CommandExecutor) Execute(ctx context.Context, cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	switch e.mode {
	case models.ModeJSON:
		if handlers.JSON == nil {
			return fmt.Errorf("JSON mode handler not implemented")
		}
		return handlers.JSON(ctx, cmd, e, args)
	case models.ModeTUI:
		if handlers.TUI == nil {
			return fmt.Errorf("TUI mode handler not implemented")
		}
		return handlers.TUI(ctx, cmd, e, args)
	default:
		return fmt.Errorf("unsupported mode: %s", e.mode)
	}
}

func (e *CommandExecutor) GetClient() *api.Client {
	return e.client
}

func (e *CommandExecutor) GetSession() *api.Session {
	return e.session
}

func (e *CommandExecutor) GetSessionStore() *api.SessionStore {
	return e.store
}

func (e *CommandExecutor) GetConfig() *config.Config {
	return e.cfg
}

// GetMode returns the detected execution mode.
func (e *CommandExecutor) GetMode() models.Mode {
	return e.mode
}

// UseColor reports whether output written by handlers may be colored.
func (e *CommandExecutor) UseColor() bool {
	return e.mode == models.ModeTUI && helpers.ShouldUseColor(e.cfg)
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, opts ExecutorOptions, handlers ModeHandlers, args []string) error {
	executor, err := NewCommandExecutor(cmd, opts)
	if err != nil {
		return HandleCommonErrors(cmd.ErrOrStderr(), err, helpers.DetectMode(cmd))
	}
	err = executor.Execute(cmd.Context(), cmd, handlers, args)
	return HandleCommonErrors(cmd.ErrOrStderr(), err, executor.GetMode())
}

// ValidateRequiredFlags checks that all required flags are present and valid.
func ValidateRequiredFlags(cmd *cobra.Command, required []string) error {
	for _, flag := range required {
		if !cmd.Flags().Changed(flag) {
			return helpers.NewCliError("MISSING_FLAG", fmt.Sprintf("falta el flag obligatorio '--%s'", flag))
		}
		if value, err := cmd.Flags().GetString(flag); err == nil && value == "" {
			return helpers.NewCliError("EMPTY_FLAG", fmt.Sprintf("el flag '--%s' no puede estar vacío", flag))
		}
	}
	return nil
}

// HandleCommonErrors provides consistent error handling across all commands.
func HandleCommonErrors(w io.Writer, err error, mode models.Mode) error {
	if err == nil {
		return nil
	}
	if cliErr := categorizeError(err); cliErr != nil {
		helpers.FprintError(w, cliErr, mode)
		return cliErr
	}
	helpers.FprintError(w, err, mode)
	return err
}

// categorizeError converts errors to structured CLI errors
func categorizeError(err error) *helpers.CliError {
	var (
		cliErr *helpers.CliError
		verr   *fleet.ValidationError
		crudE  *crud.Error
		netErr *api.NetworkError
	)
	switch {
	case errors.As(err, &cliErr):
		return cliErr
	case errors.Is(err, context.Canceled), errors.Is(err, huh.ErrUserAborted):
		return helpers.NewCliError("OPERATION_CANCELED", "Operación cancelada")
	case errors.Is(err, context.DeadlineExceeded):
		return helpers.NewCliError("OPERATION_TIMEOUT", "La operación excedió el tiempo de espera")
	case helpers.IsAuthError(err):
		return helpers.NewCliError("AUTH_ERROR", "Autenticación requerida", err.Error())
	case api.IsUnauthorized(err):
		return helpers.NewCliError("AUTH_ERROR", "La sesión expiró o no es válida", crud.Message(err))
	case errors.As(err, &verr):
		return helpers.NewCliError("VALIDATION_ERROR", "Datos inválidos", verr.UserMessage())
	case api.IsNotFound(err), errors.Is(err, crud.ErrNotFound):
		return helpers.NewCliError("NOT_FOUND", "Registro no encontrado", crud.Message(err))
	case api.IsTransport(err):
		return helpers.NewCliError("NETWORK_ERROR", "No se pudo conectar con el servidor", err.Error())
	case errors.As(err, &netErr) && netErr.Status == http.StatusBadRequest:
		return helpers.NewCliError("VALIDATION_ERROR", "Datos rechazados por el servidor", crud.Message(err))
	case errors.As(err, &crudE):
		return helpers.NewCliError("OPERATION_FAILED", crud.Message(err)).WithContext("operation", string(crudE.Op))
	case errors.As(err, &netErr):
		return helpers.NewCliError("API_ERROR", netErr.UserMessage()).WithContext("status", netErr.Status)
	default:
		return nil
	}
}
