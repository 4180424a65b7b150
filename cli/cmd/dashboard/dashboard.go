package dashboard

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// NewDashboardCommand shows the record counters.
func NewDashboardCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"stats"},
		Short:   "Resumen de trabajadores, buses, roles y asignaciones",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true}, cmd.ModeHandlers{
				JSON: statsJSON,
				TUI:  statsTUI,
			}, args)
		},
	}
	c.Flags().StringP("output", "o", "", "Formato de salida: json, yaml o table")
	return c
}

// counters adapts the stats to helpers.Tabular.
type counters struct {
	Trabajadores int `json:"trabajadores" yaml:"trabajadores"`
	Buses        int `json:"buses"        yaml:"buses"`
	Roles        int `json:"roles"        yaml:"roles"`
	Asignaciones int `json:"asignaciones" yaml:"asignaciones"`
}

func (c counters) Headers() []string {
	return []string{"Trabajadores", "Buses", "Roles", "Asignaciones"}
}

func (c counters) Rows() [][]string {
	return [][]string{{
		strconv.Itoa(c.Trabajadores), strconv.Itoa(c.Buses),
		strconv.Itoa(c.Roles), strconv.Itoa(c.Asignaciones),
	}}
}

func statsJSON(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	raw, err := c.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := helpers.ParseOutputFormat(raw)
	if err != nil {
		return err
	}
	stats, err := executor.GetClient().Stats(ctx)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("dashboard stats loaded", "workers", stats.Trabajadores, "buses", stats.Buses)
	return helpers.NewOutputWriter(c.OutOrStdout(), format, executor.UseColor()).WriteData(counters(*stats))
}

func statsTUI(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	m := NewModel(ctx, executor.GetClient().Stats)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	if fm, ok := final.(*Model); ok && fm.Error() != nil {
		return fm.Error()
	}
	return nil
}
