package helpers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

// Tabular is implemented by values that can be printed as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// OutputWriter prints command results.
type OutputWriter struct {
	writer io.Writer
	format OutputFormat
	color  bool
}

func NewOutputWriter(w io.Writer, format OutputFormat, color bool) *OutputWriter {
	return &OutputWriter{writer: w, format: format, color: color}
}

func (ow *OutputWriter) WriteData(data any) error {
	switch ow.format {
	case OutputFormatJSON, "":
		return ow.writeJSON(data)
	case OutputFormatYAML:
		return ow.writeYAML(data)
	case OutputFormatTable:
		t, ok := data.(Tabular)
		if !ok {
			return fmt.Errorf("table output is not available for %T", data)
		}
		return ow.writeTable(t)
	default:
		return fmt.Errorf("unsupported output format: %s", ow.format)
	}
}

func (ow *OutputWriter) writeJSON(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	out := pretty.Pretty(raw)
	if ow.color {
		out = pretty.Color(out, nil)
	}
	_, err = ow.writer.Write(out)
	return err
}

func (ow *OutputWriter) writeYAML(data any) error {
	enc := yaml.NewEncoder(ow.writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	return enc.Close()
}

func (ow *OutputWriter) writeTable(t Tabular) error {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers()...).
		Rows(t.Rows()...)
	if ow.color {
		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		tbl = tbl.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	}
	_, err := fmt.Fprintln(ow.writer, tbl.Render())
	return err
}
