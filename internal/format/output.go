// Package format writes CLI payloads as JSON or as human-readable text.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is implemented by payloads with a tabular text form.
type Table interface {
	TableHeaders() []string
	TableRows() [][]string
}

// Texter is implemented by payloads with a free-form text form.
type Texter interface {
	Text() string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// WriteText renders Texter and Table payloads directly. A {"data": x}
// envelope is unwrapped first; anything else falls back to indented JSON.
func WriteText(w io.Writer, v any) error {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		if d, ok := m["data"]; ok {
			v = d
		}
	}
	switch x := v.(type) {
	case Texter:
		_, err := fmt.Fprintln(w, strings.TrimRight(x.Text(), "\n"))
		return err
	case Table:
		_, err := fmt.Fprintln(w, RenderTable(x.TableHeaders(), x.TableRows()))
		return err
	case string:
		_, err := fmt.Fprintln(w, x)
		return err
	}
	return WriteJSON(w, v, true)
}

// RenderTable draws rows under headers with a rounded border.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
