package helpers

// OutputFormat selects how non-interactive commands print data.
type OutputFormat string

const (
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatTUI   OutputFormat = "tui"
)

// ParseOutputFormat accepts json, yaml and table.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatJSON, OutputFormatYAML, OutputFormatTable:
		return OutputFormat(s), nil
	case "":
		return OutputFormatJSON, nil
	default:
		return "", NewCliError("INVALID_FORMAT", "unsupported output format: "+s, "use json, yaml or table")
	}
}
