package resource

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/engine/fleet"
)

// ListResult is the json/yaml shape of list.
type ListResult[R any] struct {
	Resource fleet.Kind `json:"resource"         yaml:"resource"`
	Query    string     `json:"query,omitempty"  yaml:"query,omitempty"`
	Remote   bool       `json:"remote,omitempty" yaml:"remote,omitempty"`
	Total    int        `json:"total"            yaml:"total"`
	Count    int        `json:"count"            yaml:"count"`
	Items    []R        `json:"items"            yaml:"items"`

	desc fleet.Descriptor[R]
}

func (l ListResult[R]) Headers() []string {
	return table[R]{desc: l.desc}.Headers()
}

func (l ListResult[R]) Rows() [][]string {
	return table[R]{desc: l.desc, items: l.Items}.Rows()
}

func (cfg *CommandConfig[R]) listCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Listar " + strings.ToLower(cfg.title()),
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true}, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					return cfg.list(ctx, c, e, helpers.OutputFormatJSON)
				},
				TUI: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					return cfg.list(ctx, c, e, helpers.OutputFormatTable)
				},
			}, args)
		},
	}
	c.Flags().StringP("filter", "q", "", "Filtrar por texto sin distinguir mayúsculas ni acentos")
	c.Flags().Bool("remote-search", false, "Enviar el filtro al servidor (?search=) en lugar de filtrar localmente")
	addOutputFlag(c)
	return c
}

func (cfg *CommandConfig[R]) list(
	ctx context.Context,
	c *cobra.Command,
	executor *cmd.CommandExecutor,
	fallback helpers.OutputFormat,
) error {
	format, err := outputFormat(c, fallback)
	if err != nil {
		return err
	}
	query, err := c.Flags().GetString("filter")
	if err != nil {
		return err
	}
	remote, err := c.Flags().GetBool("remote-search")
	if err != nil {
		return err
	}
	query = strings.TrimSpace(query)

	result := ListResult[R]{Resource: cfg.Descriptor.Kind, Query: query, desc: cfg.Descriptor}
	if remote && query != "" {
		items, err := cfg.Resource(executor.GetClient()).Search(ctx, query)
		if err != nil {
			return err
		}
		result.Remote = true
		result.Items = items
		result.Total = len(items)
	} else {
		ctrl, err := cfg.controller(ctx, executor)
		if err != nil {
			return err
		}
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		ctrl.SetQuery(query)
		snap := ctrl.Snapshot()
		result.Items = snap.Filtered
		result.Total = len(snap.Items)
	}
	if result.Items == nil {
		result.Items = []R{}
	}
	result.Count = len(result.Items)
	return helpers.NewOutputWriter(c.OutOrStdout(), format, executor.UseColor()).WriteData(result)
}

func (cfg *CommandConfig[R]) getCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "get <id>",
		Short: "Mostrar un registro de " + strings.ToLower(cfg.title()),
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, args []string) error {
				return cfg.get(ctx, c, e, args[0])
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true},
				cmd.ModeHandlers{JSON: handler, TUI: handler}, args)
		},
	}
	addOutputFlag(c)
	return c
}

func (cfg *CommandConfig[R]) get(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	fallback := helpers.OutputFormatJSON
	if executor.GetMode() == models.ModeTUI {
		fallback = helpers.OutputFormatTable
	}
	format, err := outputFormat(c, fallback)
	if err != nil {
		return err
	}
	record, err := cfg.Resource(executor.GetClient()).Get(ctx, id)
	if err != nil {
		return err
	}
	return cfg.write(c, executor, format, record)
}
