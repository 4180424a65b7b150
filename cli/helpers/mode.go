package helpers

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/pkg/config"
)

var ciVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"CIRCLECI",
	"TF_BUILD",
	"CONTINUOUS_INTEGRATION",
}

func isRunningInCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isInteractiveEnvironment(cfg *config.Config) bool {
	if cfg.CLI.Interactive {
		return true
	}
	if isRunningInCI() {
		return false
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return false
	}
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// ModeFor resolves the output mode from cli.default_format, falling back
// to terminal detection for "auto".
func ModeFor(cfg *config.Config) models.Mode {
	switch OutputFormat(cfg.CLI.DefaultFormat) {
	case OutputFormatJSON:
		return models.ModeJSON
	case OutputFormatTUI:
		return models.ModeTUI
	}
	if isInteractiveEnvironment(cfg) {
		return models.ModeTUI
	}
	return models.ModeJSON
}

// DetectMode resolves the output mode for cmd.
func DetectMode(cmd *cobra.Command) models.Mode {
	return ModeFor(config.FromContext(cmd.Context()))
}

// ShouldUseColor honors cli.no_color and NO_COLOR.
func ShouldUseColor(cfg *config.Config) bool {
	if cfg.CLI.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(os.Stdout) && !isRunningInCI()
}

// TerminalWidth returns the stdout width, or fallback when unknown.
func TerminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
