// Package resource builds the list/get/create/update/delete/browse command
// group shared by every managed record kind.
package resource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/api"
	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/forms"
	"github.com/sistemabuses/busadmin/engine/fleet"
	"github.com/sistemabuses/busadmin/pkg/crud"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// CommandConfig binds one record kind to its REST resource and form.
type CommandConfig[R any] struct {
	Descriptor fleet.Descriptor[R]
	Resource   func(*api.Client) *api.Resource[R]
	Form       forms.Builder[R]
	// NeedsCatalog loads active workers, roles and buses before a form opens.
	NeedsCatalog bool
	// Now is overridden in tests.
	Now func() time.Time
}

// NewCommands returns one command group per record kind.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		NewCommand(&CommandConfig[fleet.Worker]{
			Descriptor: fleet.Workers(),
			Resource:   (*api.Client).Workers,
			Form:       forms.Worker,
		}),
		NewCommand(&CommandConfig[fleet.Bus]{
			Descriptor: fleet.Buses(),
			Resource:   (*api.Client).Buses,
			Form:       forms.Bus,
		}),
		NewCommand(&CommandConfig[fleet.Role]{
			Descriptor: fleet.Roles(),
			Resource:   (*api.Client).Roles,
			Form:       forms.Role,
		}),
		NewCommand(&CommandConfig[fleet.RoleAssignment]{
			Descriptor:   fleet.RoleAssignments(),
			Resource:     (*api.Client).RoleAssignments,
			Form:         forms.RoleAssignment,
			NeedsCatalog: true,
		}),
		NewCommand(&CommandConfig[fleet.BusAssignment]{
			Descriptor:   fleet.BusAssignments(),
			Resource:     (*api.Client).BusAssignments,
			Form:         forms.BusAssignment,
			NeedsCatalog: true,
		}),
	}
}

// NewCommand creates the command group for one kind.
func NewCommand[R any](cfg *CommandConfig[R]) *cobra.Command {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	kind := cfg.Descriptor.Kind
	root := &cobra.Command{
		Use:     string(kind),
		Aliases: kind.Aliases(),
		Short:   "Administrar " + strings.ToLower(kind.Title()),
		Long: fmt.Sprintf(`Listar, consultar, crear, editar y eliminar %s.

Sin subcomando abre el explorador interactivo en terminales.`, strings.ToLower(kind.Title())),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cfg.runBrowse(c, args)
		},
	}
	root.AddCommand(
		cfg.listCommand(),
		cfg.getCommand(),
		cfg.createCommand(),
		cfg.updateCommand(),
		cfg.deleteCommand(),
		cfg.browseCommand(),
	)
	return root
}

func (cfg *CommandConfig[R]) title() string {
	return cfg.Descriptor.Kind.Title()
}

// controller builds a list controller over the executor's client.
func (cfg *CommandConfig[R]) controller(ctx context.Context, executor *cmd.CommandExecutor) (*crud.Controller[R, int64], error) {
	policy, err := crud.ParseDoubleOpenPolicy(executor.GetConfig().CLI.DoubleOpen)
	if err != nil {
		return nil, err
	}
	return crud.New[R, int64](
		cfg.Resource(executor.GetClient()),
		cfg.Descriptor.ID,
		cfg.Descriptor.Matcher(),
		crud.WithName(strings.ToLower(cfg.title())),
		crud.WithDoubleOpen(policy),
		crud.WithLogger(logger.FromContext(ctx)),
	), nil
}

// catalog loads the select options of assignment forms. It returns nil for
// kinds without references.
func (cfg *CommandConfig[R]) catalog(ctx context.Context, client *api.Client) (*fleet.Catalog, error) {
	if !cfg.NeedsCatalog {
		return nil, nil
	}
	catalog, err := fleet.LoadCatalog(ctx, client.Workers(), client.Roles(), client.Buses())
	if err != nil {
		return nil, err
	}
	if err := forms.CheckCatalog(cfg.Descriptor.Kind, catalog); err != nil {
		return nil, helpers.NewCliError("EMPTY_CATALOG", crud.Message(err),
			"cree trabajadores activos y roles o buses activos antes de asignar")
	}
	return catalog, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, helpers.NewCliError("INVALID_ID", fmt.Sprintf("id inválido: %q", raw), "use el id numérico del registro")
	}
	return id, nil
}

// outputFormat reads --output, falling back when it is not set.
func outputFormat(c *cobra.Command, fallback helpers.OutputFormat) (helpers.OutputFormat, error) {
	raw, err := c.Flags().GetString("output")
	if err != nil || raw == "" {
		return fallback, nil
	}
	return helpers.ParseOutputFormat(strings.ToLower(raw))
}

func addOutputFlag(c *cobra.Command) {
	c.Flags().StringP("output", "o", "", "Formato de salida: json, yaml o table")
}

// write prints records in the requested format; single records are printed
// bare in json and yaml.
func (cfg *CommandConfig[R]) write(
	c *cobra.Command,
	executor *cmd.CommandExecutor,
	format helpers.OutputFormat,
	record R,
) error {
	out := helpers.NewOutputWriter(c.OutOrStdout(), format, executor.UseColor())
	if format == helpers.OutputFormatTable {
		return out.WriteData(table[R]{desc: cfg.Descriptor, items: []R{record}})
	}
	return out.WriteData(record)
}

// table adapts records to helpers.Tabular.
type table[R any] struct {
	desc  fleet.Descriptor[R]
	items []R
}

func (t table[R]) Headers() []string {
	headers := make([]string, len(t.desc.Columns))
	for i, col := range t.desc.Columns {
		headers[i] = col.Title
	}
	return headers
}

func (t table[R]) Rows() [][]string {
	rows := make([][]string, len(t.items))
	for i, item := range t.items {
		rows[i] = t.desc.Row(item)
	}
	return rows
}
