package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/sistemabuses/busadmin/cli/tui/models"
)

var (
	errorTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	errorDetailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

// FormatError renders err for the given mode: a JSON document for
// automation, a styled line for terminals.
func FormatError(err error, mode models.Mode) string {
	if err == nil {
		return ""
	}
	if mode == models.ModeTUI {
		return formatErrorTUI(err)
	}
	return formatErrorJSON(err)
}

func formatErrorJSON(err error) string {
	payload := map[string]any{"error": err.Error()}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		payload = map[string]any{"code": cliErr.Code, "error": cliErr.Message}
		if cliErr.Details != "" {
			payload["details"] = cliErr.Details
		}
		if len(cliErr.Context) > 0 {
			payload["context"] = cliErr.Context
		}
	}
	data, mErr := json.MarshalIndent(payload, "", "  ")
	if mErr != nil {
		return `{"error": "failed to encode error"}`
	}
	return string(data)
}

func formatErrorTUI(err error) string {
	message, details := err.Error(), ""
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		message, details = cliErr.Message, cliErr.Details
	}
	out := fmt.Sprintf("%s %s", errorIcon(err), errorTitleStyle.Render(message))
	if details != "" {
		out += "\n" + errorDetailStyle.Render("Detalle: "+details)
	}
	return out
}

func errorIcon(err error) string {
	var cliErr *CliError
	if !errors.As(err, &cliErr) {
		return "✗"
	}
	switch cliErr.Code {
	case "NETWORK_ERROR":
		return "🌐"
	case "AUTH_ERROR":
		return "🔐"
	case "OPERATION_TIMEOUT":
		return "⏰"
	default:
		return "✗"
	}
}

// OutputError writes err to stderr in the format of mode.
func OutputError(err error, mode models.Mode) {
	FprintError(os.Stderr, err, mode)
}

func FprintError(w io.Writer, err error, mode models.Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, mode))
}
