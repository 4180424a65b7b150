package auth

import (
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/cmd/auth/handlers"
)

// NewLoginCommand returns the login command
func NewLoginCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión en la API",
		Long: `Autentica contra la API y guarda el token en el archivo de sesión.
En modo JSON las credenciales se pasan con --username y --password o
--password-stdin.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
	c.Flags().StringP("username", "u", "", "Nombre de usuario")
	c.Flags().StringP("password", "p", "", "Contraseña")
	c.Flags().Bool("password-stdin", false, "Leer la contraseña desde stdin")
	return c
}

func runLogin(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{
		RequireClient: true,
	}, cmd.ModeHandlers{
		JSON: handlers.LoginJSON,
		TUI:  handlers.LoginTUI,
	}, args)
}

// NewLogoutCommand returns the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar la sesión actual",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{
				RequireClient: true,
			}, cmd.ModeHandlers{
				JSON: handlers.LogoutJSON,
				TUI:  handlers.LogoutTUI,
			}, args)
		},
	}
}

// NewWhoamiCommand returns the whoami command
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar la sesión activa",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, cmd.ModeHandlers{
				JSON: handlers.WhoamiJSON,
				TUI:  handlers.WhoamiTUI,
			}, args)
		},
	}
}
