package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/components"
	"github.com/sistemabuses/busadmin/cli/tui/forms"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
	"github.com/sistemabuses/busadmin/engine/fleet"
	"github.com/sistemabuses/busadmin/pkg/crud"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

// DeleteResult is printed after a successful delete.
type DeleteResult struct {
	Resource fleet.Kind `json:"resource" yaml:"resource"`
	ID       int64      `json:"id"       yaml:"id"`
	Deleted  bool       `json:"deleted"  yaml:"deleted"`
}

func (cfg *CommandConfig[R]) createCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: cfg.Descriptor.CreateTitle(),
		Long: fmt.Sprintf(`%s.

Los campos omitidos toman los valores por defecto. Sin --data ni --file, en
una terminal se abre el formulario interactivo.`, cfg.Descriptor.CreateTitle()),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
				return cfg.create(ctx, c, e)
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true},
				cmd.ModeHandlers{JSON: handler, TUI: handler}, args)
		},
	}
	addPayloadFlags(c)
	addOutputFlag(c)
	return c
}

func (cfg *CommandConfig[R]) create(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor) error {
	ctrl, err := cfg.controller(ctx, executor)
	if err != nil {
		return err
	}
	now := cfg.Now()
	defaults := cfg.Descriptor.Defaults(now)
	if err := ctrl.OpenCreate(defaults); err != nil {
		return err
	}
	defer ctrl.CloseModal()

	raw, err := payloadFromFlags(c)
	if err != nil {
		return err
	}
	var saved R
	switch {
	case raw != nil:
		record, err := applyPatch(defaults, raw)
		if err != nil {
			return err
		}
		if saved, err = cfg.submit(ctx, ctrl, record); err != nil {
			return err
		}
	case executor.GetMode() == models.ModeTUI:
		if saved, err = cfg.submitInteractive(ctx, executor, ctrl, cfg.Descriptor.CreateTitle(), defaults); err != nil {
			return err
		}
	default:
		return helpers.NewCliError("MISSING_INPUT", "faltan los datos del registro",
			"use --data '{...}' o --file registro.yaml")
	}
	return cfg.report(c, executor, "Registro creado", saved)
}

func (cfg *CommandConfig[R]) updateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "update <id>",
		Aliases: []string{"edit"},
		Short:   cfg.Descriptor.EditTitle(),
		Long: fmt.Sprintf(`%s.

--data y --file aplican solo los campos presentes sobre el registro actual.
Sin ellos, en una terminal se abre el formulario con los valores actuales.`, cfg.Descriptor.EditTitle()),
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, args []string) error {
				return cfg.update(ctx, c, e, args[0])
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true},
				cmd.ModeHandlers{JSON: handler, TUI: handler}, args)
		},
	}
	addPayloadFlags(c)
	addOutputFlag(c)
	return c
}

func (cfg *CommandConfig[R]) update(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	raw, err := payloadFromFlags(c)
	if err != nil {
		return err
	}
	if raw == nil && executor.GetMode() != models.ModeTUI {
		return helpers.NewCliError("MISSING_INPUT", "faltan los datos a modificar",
			"use --data '{...}' o --file cambios.yaml")
	}
	ctrl, err := cfg.controller(ctx, executor)
	if err != nil {
		return err
	}
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	if err := ctrl.OpenEdit(id); err != nil {
		return err
	}
	defer ctrl.CloseModal()
	modal, _ := ctrl.Modal()

	var saved R
	if raw != nil {
		record, err := applyPatch(modal.Values, raw)
		if err != nil {
			return err
		}
		if saved, err = cfg.submit(ctx, ctrl, record); err != nil {
			return err
		}
	} else if saved, err = cfg.submitInteractive(ctx, executor, ctrl, cfg.Descriptor.EditTitle(), modal.Values); err != nil {
		return err
	}
	return cfg.report(c, executor, "Registro actualizado", saved)
}

// submit validates record and saves it through the open form. A failed
// reload after a successful save is only logged.
func (cfg *CommandConfig[R]) submit(ctx context.Context, ctrl *crud.Controller[R, int64], record R) (R, error) {
	var zero R
	payload, err := cfg.Descriptor.Prepare(record, cfg.Now())
	if err != nil {
		return zero, err
	}
	saved, err := ctrl.Submit(ctx, payload)
	if err != nil && errors.Is(err, crud.ErrLoadFailed) {
		logger.FromContext(ctx).Warn("record saved but the list could not be reloaded", "error", err)
		return saved, nil
	}
	return saved, err
}

// submitInteractive shows the form until the record is saved or the user
// gives up. Validation and save errors are shown above the fields.
func (cfg *CommandConfig[R]) submitInteractive(
	ctx context.Context,
	executor *cmd.CommandExecutor,
	ctrl *crud.Controller[R, int64],
	title string,
	values R,
) (R, error) {
	var zero R
	catalog, err := cfg.catalog(ctx, executor.GetClient())
	if err != nil {
		return zero, err
	}
	note := ""
	for {
		form, collect := cfg.Form(title, note, values, catalog)
		completed, err := components.RunForm(ctx, form)
		if err != nil {
			return zero, err
		}
		if !completed {
			return zero, context.Canceled
		}
		values = collect()
		saved, err := cfg.submit(ctx, ctrl, values)
		if err == nil {
			return saved, nil
		}
		var verr *fleet.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, crud.ErrSubmitFailed) {
			return zero, err
		}
		note = crud.Message(err)
	}
}

func (cfg *CommandConfig[R]) report(c *cobra.Command, executor *cmd.CommandExecutor, done string, saved R) error {
	fallback := helpers.OutputFormatJSON
	if executor.GetMode() == models.ModeTUI {
		if _, err := fmt.Fprintln(c.OutOrStdout(), styles.SuccessStyle.Render("✓ "+done)); err != nil {
			return err
		}
		fallback = helpers.OutputFormatTable
	}
	format, err := outputFormat(c, fallback)
	if err != nil {
		return err
	}
	return cfg.write(c, executor, format, saved)
}

func (cfg *CommandConfig[R]) deleteCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Eliminar un registro de " + strings.ToLower(cfg.title()),
		Long: `Elimina un registro. En una terminal pide confirmación; en modo JSON
se requiere --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, args []string) error {
				return cfg.delete(ctx, c, e, args[0])
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireAuth: true},
				cmd.ModeHandlers{JSON: handler, TUI: handler}, args)
		},
	}
	c.Flags().Bool("force", false, "No pedir confirmación")
	return c
}

func (cfg *CommandConfig[R]) delete(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	force, err := c.Flags().GetBool("force")
	if err != nil {
		return err
	}
	ctrl, err := cfg.controller(ctx, executor)
	if err != nil {
		return err
	}
	if !force {
		if executor.GetMode() != models.ModeTUI {
			return helpers.NewCliError("CONFIRMATION_REQUIRED", "la eliminación requiere confirmación",
				"agregue --force para eliminar sin preguntar")
		}
		confirmed, err := cfg.confirmDelete(ctx, ctrl, id)
		if err != nil {
			return err
		}
		if !confirmed {
			_, err := fmt.Fprintln(c.OutOrStdout(), styles.HelpStyle.Render("Eliminación cancelada"))
			return err
		}
	}
	if err := ctrl.DeleteRecord(ctx, id); err != nil {
		if !errors.Is(err, crud.ErrLoadFailed) {
			return err
		}
		logger.FromContext(ctx).Warn("record deleted but the list could not be reloaded", "error", err)
	}
	if executor.GetMode() == models.ModeTUI {
		_, err := fmt.Fprintln(c.OutOrStdout(), styles.SuccessStyle.Render("✓ Registro eliminado"))
		return err
	}
	result := DeleteResult{Resource: cfg.Descriptor.Kind, ID: id, Deleted: true}
	return helpers.NewOutputWriter(c.OutOrStdout(), helpers.OutputFormatJSON, executor.UseColor()).WriteData(result)
}

// confirmDelete names the record when it can be found; a missing record is
// left for the delete call to report.
func (cfg *CommandConfig[R]) confirmDelete(ctx context.Context, ctrl *crud.Controller[R, int64], id int64) (bool, error) {
	label := fmt.Sprintf("%s #%d", cfg.Descriptor.Singular, id)
	if err := ctrl.Load(ctx); err != nil {
		return false, err
	}
	if record, ok := ctrl.Find(id); ok {
		label = cfg.Descriptor.Label(record)
	}
	var confirmed bool
	completed, err := components.RunForm(ctx, forms.Delete(label, &confirmed))
	if err != nil {
		return false, err
	}
	return completed && confirmed, nil
}
