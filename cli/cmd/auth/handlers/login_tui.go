package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/components"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
)

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " es obligatorio")
		}
		return nil
	}
}

// newLoginForm asks for the credentials the flags did not provide.
func newLoginForm(username, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Sistema de Buses").
				Description("Ingrese sus credenciales de administrador"),
			huh.NewInput().
				Title("Usuario").
				Value(username).
				Validate(notEmpty("El usuario")),
			huh.NewInput().
				Title("Contraseña").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(notEmpty("La contraseña")),
		),
	).WithShowHelp(true)
}

// LoginTUI handles login in TUI mode
func LoginTUI(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	username, password, err := credentialsFromFlags(cobraCmd)
	if err != nil {
		return err
	}
	if username == "" || password == "" {
		completed, err := components.RunForm(ctx, newLoginForm(&username, &password))
		if err != nil {
			return fmt.Errorf("failed to run login form: %w", err)
		}
		if !completed {
			return helpers.NewCliError("OPERATION_CANCELED", "Inicio de sesión cancelado")
		}
	}
	result, err := login(ctx, executor, strings.TrimSpace(username), password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cobraCmd.OutOrStdout(), styles.SuccessStyle.Render(
		fmt.Sprintf("✓ Sesión iniciada como %s", result.Username)))
	return nil
}
