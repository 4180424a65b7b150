package resource

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/browser"
	"github.com/sistemabuses/busadmin/engine/fleet"
)

func (cfg *CommandConfig[R]) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explorar " + cfg.Descriptor.Kind.Title() + " de forma interactiva",
		Args:  cobra.NoArgs,
		RunE:  cfg.runBrowse,
	}
}

func (cfg *CommandConfig[R]) runBrowse(c *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true}, cmd.ModeHandlers{
		JSON: func(context.Context, *cobra.Command, *cmd.CommandExecutor, []string) error {
			return helpers.NewCliError("TUI_REQUIRED", "el explorador necesita una terminal interactiva",
				"use el subcomando list o --format tui")
		},
		TUI: cfg.browse,
	}, args)
}

func (cfg *CommandConfig[R]) browse(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	ctrl, err := cfg.controller(ctx, executor)
	if err != nil {
		return err
	}
	bc := browser.Config[R]{
		Descriptor: cfg.Descriptor,
		Controller: ctrl,
		Form:       cfg.Form,
		Copy:       clipboard.WriteAll,
		Now:        cfg.Now,
	}
	if cfg.NeedsCatalog {
		client := executor.GetClient()
		bc.Catalog = func(ctx context.Context) (*fleet.Catalog, error) {
			return cfg.catalog(ctx, client)
		}
	}
	return browser.Run(ctx, bc)
}
