package handlers

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/api"
	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/pkg/crud"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// LoginResult is printed after a successful login. The token is never
// echoed.
type LoginResult struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Username      string `json:"username"      yaml:"username"`
	SessionFile   string `json:"session_file"  yaml:"session_file"`
}

// LoginJSON handles login in JSON mode
func LoginJSON(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	username, password, err := credentialsFromFlags(cobraCmd)
	if err != nil {
		return err
	}
	if username == "" {
		return helpers.NewCliError("MISSING_FLAG", "falta el flag obligatorio '--username'")
	}
	if password == "" {
		return helpers.NewCliError("MISSING_FLAG", "falta la contraseña (--password o --password-stdin)")
	}
	result, err := login(ctx, executor, username, password)
	if err != nil {
		return err
	}
	return helpers.NewOutputWriter(cobraCmd.OutOrStdout(), helpers.OutputFormatJSON, false).WriteData(result)
}

func credentialsFromFlags(cobraCmd *cobra.Command) (string, string, error) {
	username, err := cobraCmd.Flags().GetString("username")
	if err != nil {
		return "", "", fmt.Errorf("failed to get username flag: %w", err)
	}
	password, err := cobraCmd.Flags().GetString("password")
	if err != nil {
		return "", "", fmt.Errorf("failed to get password flag: %w", err)
	}
	fromStdin, err := cobraCmd.Flags().GetBool("password-stdin")
	if err != nil {
		return "", "", fmt.Errorf("failed to get password-stdin flag: %w", err)
	}
	if fromStdin {
		line, err := bufio.NewReader(cobraCmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", "", helpers.NewCliError("INVALID_INPUT", "no se pudo leer la contraseña desde stdin", err.Error())
		}
		password = strings.TrimRight(line, "\r\n")
	}
	return strings.TrimSpace(username), password, nil
}

// login authenticates and persists the session.
func login(ctx context.Context, executor *cmd.CommandExecutor, username, password string) (*LoginResult, error) {
	log := logger.FromContext(ctx)
	client := executor.GetClient()
	if client == nil {
		return nil, fmt.Errorf("API client not available")
	}
	session, err := client.Login(ctx, username, password)
	if err != nil {
		if api.IsUnauthorized(err) || isRejectedCredentials(err) {
			return nil, helpers.NewAuthError(crud.Message(err))
		}
		return nil, err
	}
	store := executor.GetSessionStore()
	if err := store.Save(session); err != nil {
		return nil, err
	}
	client.SetSession(*session)
	log.Info("logged in", "username", session.Username)
	return &LoginResult{Authenticated: true, Username: session.Username, SessionFile: store.Path()}, nil
}

func isRejectedCredentials(err error) bool {
	status, ok := api.StatusOf(err)
	return ok && status == http.StatusBadRequest
}
