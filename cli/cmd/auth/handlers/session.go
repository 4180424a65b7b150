package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// SessionInfo describes the active session without exposing the token.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"        yaml:"authenticated"`
	Username      string     `json:"username,omitempty"   yaml:"username,omitempty"`
	Since         *time.Time `json:"since,omitempty"      yaml:"since,omitempty"`
	API           string     `json:"api"                  yaml:"api"`
	SessionFile   string     `json:"session_file"         yaml:"session_file"`
}

func sessionInfo(executor *cmd.CommandExecutor) SessionInfo {
	sess := executor.GetSession()
	info := SessionInfo{
		Authenticated: sess.Authenticated(),
		API:           executor.GetConfig().API.BaseURL,
		SessionFile:   executor.GetSessionStore().Path(),
	}
	if info.Authenticated {
		info.Username = sess.Username
		if !sess.CreatedAt.IsZero() {
			since := sess.CreatedAt
			info.Since = &since
		}
	}
	return info
}

// WhoamiJSON handles whoami in JSON mode
func WhoamiJSON(_ context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	return helpers.NewOutputWriter(cobraCmd.OutOrStdout(), helpers.OutputFormatJSON, false).
		WriteData(sessionInfo(executor))
}

// WhoamiTUI handles whoami in TUI mode
func WhoamiTUI(_ context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	info := sessionInfo(executor)
	out := cobraCmd.OutOrStdout()
	if !info.Authenticated {
		fmt.Fprintln(out, styles.WarningStyle.Render("No hay una sesión activa. Ejecute 'busadmin login'."))
		return nil
	}
	name := info.Username
	if name == "" {
		name = "(token explícito)"
	}
	line := fmt.Sprintf("Conectado como %s a %s", name, info.API)
	if info.Since != nil {
		line += fmt.Sprintf(" desde %s", humanize.Time(*info.Since))
	}
	fmt.Fprintln(out, styles.SuccessStyle.Render(line))
	return nil
}

func logout(ctx context.Context, executor *cmd.CommandExecutor) (bool, error) {
	had := executor.GetSession().Authenticated()
	if client := executor.GetClient(); client != nil {
		client.Logout(ctx)
	}
	if err := executor.GetSessionStore().Clear(); err != nil {
		return had, err
	}
	logger.FromContext(ctx).Info("logged out")
	return had, nil
}

// LogoutJSON handles logout in JSON mode
func LogoutJSON(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	had, err := logout(ctx, executor)
	if err != nil {
		return err
	}
	return helpers.NewOutputWriter(cobraCmd.OutOrStdout(), helpers.OutputFormatJSON, false).
		WriteData(map[string]any{"logged_out": true, "had_session": had})
}

// LogoutTUI handles logout in TUI mode
func LogoutTUI(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	had, err := logout(ctx, executor)
	if err != nil {
		return err
	}
	msg := "Sesión cerrada"
	if !had {
		msg = "No había una sesión activa"
	}
	fmt.Fprintln(cobraCmd.OutOrStdout(), styles.SuccessStyle.Render("✓ "+msg))
	return nil
}
