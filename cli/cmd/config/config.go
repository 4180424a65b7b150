package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/cmd"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/logger"
)

var tokenRegex = regexp.MustCompile(`token=[^&\s]+`)

// NewConfigCommand creates the config command using the unified command pattern
func NewConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Configuración efectiva y diagnósticos",
		Long:  `Muestra, valida y diagnostica la configuración que usa busadmin.`,
	}
	c.AddCommand(
		NewConfigShowCommand(),
		NewConfigDiagnosticsCommand(),
		NewConfigValidateCommand(),
	)
	return c
}

// NewConfigShowCommand creates the config show subcommand
func NewConfigShowCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "show",
		Short: "Muestra los valores de configuración",
		Long: `Muestra la configuración efectiva con los secretos ocultos.
Formatos: json, yaml y table.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{}, cmd.ModeHandlers{
				JSON: handleShow,
				TUI:  handleShow,
			}, args)
		},
	}
	c.Flags().StringP("output", "o", "", "Formato de salida: json, yaml o table")
	c.Flags().Bool("sources", false, "Incluye el origen de cada valor")
	return c
}

// NewConfigDiagnosticsCommand creates the config diagnostics subcommand
func NewConfigDiagnosticsCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "diagnostics",
		Short: "Diagnostica la configuración",
		Long: `Revisa los archivos de configuración, de entorno y de sesión,
valida la configuración y, con --verbose, muestra el origen de cada valor.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{}, cmd.ModeHandlers{
				JSON: handleDiagnosticsJSON,
				TUI:  handleDiagnosticsTUI,
			}, args)
		},
	}
	c.Flags().BoolP("verbose", "v", false, "Muestra el origen de cada valor")
	return c
}

// NewConfigValidateCommand creates the config validate subcommand
func NewConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Valida la configuración",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{}, cmd.ModeHandlers{
				JSON: handleValidateJSON,
				TUI:  handleValidateTUI,
			}, args)
		},
	}
}

// settings is the flattened, redacted configuration.
type settings struct {
	Config  map[string]string `json:"config"            yaml:"config"`
	Sources map[string]string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

func (s settings) Headers() []string {
	if s.Sources != nil {
		return []string{"Clave", "Valor", "Origen"}
	}
	return []string{"Clave", "Valor"}
}

func (s settings) Rows() [][]string {
	keys := sortedKeys(s.Config)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		row := []string{k, s.Config[k]}
		if s.Sources != nil {
			row = append(row, s.Sources[k])
		}
		rows = append(rows, row)
	}
	return rows
}

func handleShow(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("executing config show command", "mode", executor.GetMode())
	raw, err := c.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if raw == "" && executor.GetMode() == models.ModeTUI {
		raw = string(helpers.OutputFormatTable)
	}
	format, err := helpers.ParseOutputFormat(raw)
	if err != nil {
		return err
	}
	withSources, err := c.Flags().GetBool("sources")
	if err != nil {
		return fmt.Errorf("failed to get sources flag: %w", err)
	}
	cfg := executor.GetConfig()
	out := settings{Config: flattenConfig(cfg)}
	if withSources {
		out.Sources = sourcesOf(ctx, out.Config)
	}
	return helpers.NewOutputWriter(c.OutOrStdout(), format, executor.UseColor()).WriteData(out)
}

// sourcesOf resolves which source provided every key in flat.
func sourcesOf(ctx context.Context, flat map[string]string) map[string]string {
	sources := make(map[string]string, len(flat))
	manager := config.ManagerFromContext(ctx)
	for key := range flat {
		source := config.SourceDefault
		if manager != nil {
			source = manager.Service.GetSource(key)
		}
		sources[key] = string(source)
	}
	return sources
}

type validation struct {
	Valid   bool   `json:"valid"   yaml:"valid"`
	Message string `json:"message" yaml:"message"`
}

func validate(ctx context.Context, cfg *config.Config) error {
	manager := config.ManagerFromContext(ctx)
	if manager == nil {
		return fmt.Errorf("configuration manager not available")
	}
	return manager.Service.Validate(cfg)
}

func handleValidateJSON(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("executing config validate command in JSON mode")
	result := validation{Valid: true, Message: "La configuración es válida"}
	if err := validate(ctx, executor.GetConfig()); err != nil {
		result = validation{Valid: false, Message: err.Error()}
	}
	return helpers.NewOutputWriter(c.OutOrStdout(), helpers.OutputFormatJSON, false).WriteData(result)
}

func handleValidateTUI(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("executing config validate command in TUI mode")
	if err := validate(ctx, executor.GetConfig()); err != nil {
		return helpers.NewCliError("INVALID_CONFIG", "la configuración no es válida", err.Error())
	}
	_, err := fmt.Fprintln(c.OutOrStdout(), styles.SuccessStyle.Render("✓ La configuración es válida"))
	return err
}

// fileCheck describes one file busadmin reads.
type fileCheck struct {
	Path   string `json:"path"            yaml:"path"`
	Exists bool   `json:"exists"          yaml:"exists"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type diagnostics struct {
	WorkingDirectory string            `json:"working_directory"  yaml:"working_directory"`
	ConfigFile       *fileCheck        `json:"config_file"        yaml:"config_file"`
	EnvFile          *fileCheck        `json:"env_file"           yaml:"env_file"`
	SessionFile      *fileCheck        `json:"session_file"       yaml:"session_file"`
	Authenticated    bool              `json:"authenticated"      yaml:"authenticated"`
	Configuration    map[string]string `json:"configuration"      yaml:"configuration"`
	Validation       validation        `json:"validation"         yaml:"validation"`
	Sources          map[string]string `json:"sources,omitempty"  yaml:"sources,omitempty"`
}

func handleDiagnosticsJSON(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	logger.FromContext(ctx).Debug("executing config diagnostics command in JSON mode")
	d, err := runDiagnostics(ctx, c, executor)
	if err != nil {
		return err
	}
	return helpers.NewOutputWriter(c.OutOrStdout(), helpers.OutputFormatJSON, false).WriteData(d)
}

func handleDiagnosticsTUI(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	log := logger.FromContext(ctx)
	log.Debug("executing config diagnostics command in TUI mode")
	d, err := runDiagnostics(ctx, c, executor)
	if err != nil {
		return err
	}
	printDiagnostics(c.OutOrStdout(), d)
	log.Debug("diagnostics completed successfully")
	return nil
}

// runDiagnostics performs the actual diagnostics
func runDiagnostics(ctx context.Context, c *cobra.Command, executor *cmd.CommandExecutor) (*diagnostics, error) {
	verbose, err := c.Flags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg := executor.GetConfig()
	d := &diagnostics{
		WorkingDirectory: cwd,
		ConfigFile:       checkFile(configFilePath(ctx)),
		EnvFile:          checkFile(envFilePath(c)),
		SessionFile:      checkFile(executor.GetSessionStore().Path()),
		Authenticated:    executor.GetSession().Authenticated(),
		Configuration:    flattenConfig(cfg),
		Validation:       validation{Valid: true, Message: "La configuración es válida"},
	}
	if err := validate(ctx, cfg); err != nil {
		d.Validation = validation{Valid: false, Message: err.Error()}
	}
	if verbose {
		d.Sources = sourcesOf(ctx, d.Configuration)
	}
	return d, nil
}

// configFilePath returns the YAML file the manager was loaded from, if any.
func configFilePath(ctx context.Context) string {
	manager := config.ManagerFromContext(ctx)
	if manager == nil {
		return ""
	}
	for _, source := range manager.Sources() {
		if p, ok := source.(interface{ Path() string }); ok && source.Type() == config.SourceYAML {
			return p.Path()
		}
	}
	return ""
}

// envFilePath reads the root --env-file flag when the command is attached to it.
func envFilePath(c *cobra.Command) string {
	if f := c.Flag("env-file"); f != nil {
		return f.Value.String()
	}
	return ""
}

func checkFile(path string) *fileCheck {
	if path == "" {
		return nil
	}
	check := &fileCheck{Path: path}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		check.Error = err.Error()
	case info.IsDir():
		check.Error = "es un directorio"
	default:
		check.Exists = true
	}
	return check
}

func printDiagnostics(w io.Writer, d *diagnostics) {
	fmt.Fprintln(w, styles.RenderTitle("Diagnóstico de configuración"))
	fmt.Fprintf(w, "Directorio de trabajo: %s\n\n", d.WorkingDirectory)

	printFile(w, "Archivo de configuración", d.ConfigFile)
	printFile(w, "Archivo .env", d.EnvFile)
	printFile(w, "Archivo de sesión", d.SessionFile)
	if d.Authenticated {
		fmt.Fprintln(w, styles.SuccessStyle.Render("✓ Sesión activa"))
	} else {
		fmt.Fprintln(w, styles.WarningStyle.Render("! Sin sesión; ejecute 'busadmin login'"))
	}

	fmt.Fprintln(w)
	if d.Validation.Valid {
		fmt.Fprintln(w, styles.SuccessStyle.Render("✓ "+d.Validation.Message))
	} else {
		fmt.Fprintln(w, styles.ErrorStyle.Render("✗ "+d.Validation.Message))
	}

	if d.Sources != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.RenderTitle("Origen de los valores"))
		for _, key := range sortedKeys(d.Sources) {
			fmt.Fprintf(w, "  %-24s %s\n", key, d.Sources[key])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.HelpStyle.Render(
		"Precedencia: variables de entorno, flags, archivo YAML y valores por defecto"))
}

func printFile(w io.Writer, label string, check *fileCheck) {
	switch {
	case check == nil:
		fmt.Fprintf(w, "%s: %s\n", label, styles.HelpStyle.Render("no configurado"))
	case check.Error != "":
		fmt.Fprintf(w, "%s: %s %s\n", label, check.Path, styles.ErrorStyle.Render(check.Error))
	case check.Exists:
		fmt.Fprintf(w, "%s: %s %s\n", label, check.Path, styles.SuccessStyle.Render("✓"))
	default:
		fmt.Fprintf(w, "%s: %s %s\n", label, check.Path, styles.HelpStyle.Render("(no existe)"))
	}
}

// flattenConfig is config.Flatten with credentials removed from the API URL.
func flattenConfig(cfg *config.Config) map[string]string {
	flat := config.Flatten(cfg)
	flat["api.base_url"] = redactURL(flat["api.base_url"])
	return flat
}

// redactURL hides userinfo and token query parameters.
func redactURL(urlStr string) string {
	if i := strings.Index(urlStr, "://"); i >= 0 {
		rest := urlStr[i+3:]
		if at := strings.Index(rest, "@"); at >= 0 && !strings.Contains(rest[:at], "/") {
			urlStr = urlStr[:i+3] + "[REDACTED]@" + rest[at+1:]
		}
	}
	return tokenRegex.ReplaceAllString(urlStr, "token=[REDACTED]")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
