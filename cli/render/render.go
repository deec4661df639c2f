// Package render provides centralized output rendering for the decomp CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// Color handling:
//   - --no-color affects table output only
//   - color is only ever applied when stdout is a TTY
//   - --quiet discards rendered output entirely (logs are unaffected)
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Outcome colors for table cells.
var outcomeStyles = map[string]lipgloss.Style{
	"success": lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	"failed":  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
	"skipped": lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	color  bool
	out    io.Writer
}

// NewRenderer creates a renderer from CLI context.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	tty := isTTY(os.Stdout)
	if format == "" {
		if tty {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	var out io.Writer = os.Stdout
	if c.Bool("quiet") {
		out = io.Discard
	}

	return &Renderer{
		format: format,
		color:  tty && !c.Bool("no-color"),
		out:    out,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
// Color is applied only if out is a terminal and noColor is false.
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = !noColor && isTTY(f)
	}
	return &Renderer{
		format: format,
		color:  color,
		out:    out,
	}
}

// Format returns the selected format.
func (r *Renderer) Format() Format {
	return r.format
}

// Writer returns the destination of rendered output.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) renderTable(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice {
		return r.renderSliceTable(v)
	}
	return r.renderStructTable(data)
}

func (r *Renderer) renderSliceTable(v reflect.Value) error {
	if v.Len() == 0 {
		_, err := fmt.Fprintln(r.out, "(no results)")
		return err
	}

	headers := r.getHeaders(v.Index(0))
	rows := make([][]string, 0, v.Len()+1)
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	rows = append(rows, upper)
	for i := 0; i < v.Len(); i++ {
		rows = append(rows, r.getRowValues(v.Index(i), headers))
	}
	return writeColumns(r.out, rows)
}

func (r *Renderer) renderStructTable(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var rows [][]string
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := r.getFieldName(field)
			rows = append(rows, []string{name + ":", r.cell(name, v.Field(i))})
		}
	case reflect.Map:
		for _, key := range sortedKeys(v) {
			name := fmt.Sprintf("%v", key.Interface())
			rows = append(rows, []string{name + ":", r.cell(name, v.MapIndex(key))})
		}
	default:
		_, err := fmt.Fprintf(r.out, "%v\n", data)
		return err
	}
	return writeColumns(r.out, rows)
}

// writeColumns writes rows as left-aligned columns two spaces apart.
// Widths are measured with lipgloss.Width, so styled cells align with
// plain ones. The last column is not padded.
func writeColumns(out io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func (r *Renderer) getHeaders(v reflect.Value) []string {
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	var headers []string
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				headers = append(headers, r.getFieldName(t.Field(i)))
			}
		}
	case reflect.Map:
		for _, key := range sortedKeys(v) {
			headers = append(headers, fmt.Sprintf("%v", key.Interface()))
		}
	default:
		headers = []string{"value"}
	}
	return headers
}

func (r *Renderer) getRowValues(v reflect.Value, headers []string) []string {
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	var values []string
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		col := 0
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			values = append(values, r.cell(headers[col], v.Field(i)))
			col++
		}
	case reflect.Map:
		for _, h := range headers {
			val := v.MapIndex(reflect.ValueOf(h))
			if val.IsValid() {
				values = append(values, r.cell(h, val))
			} else {
				values = append(values, "")
			}
		}
	default:
		values = []string{r.formatValue(v)}
	}
	return values
}

func (r *Renderer) getFieldName(f reflect.StructField) string {
	// Prefer json tag name
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" && parts[0] != "-" {
			return parts[0]
		}
	}
	return strings.ToLower(f.Name)
}

// cell formats a value and colors outcome columns.
func (r *Renderer) cell(column string, v reflect.Value) string {
	s := r.formatValue(v)
	if !r.color || column != "outcome" {
		return s
	}
	if style, ok := outcomeStyles[s]; ok {
		return style.Render(s)
	}
	return s
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func (r *Renderer) formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Type() {
	case durationType:
		return time.Duration(v.Int()).Round(time.Millisecond).String()
	case timeType:
		return v.Interface().(time.Time).Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		switch v.Len() {
		case 0:
			return "[]"
		case 1:
			return r.formatValue(v.Index(0))
		default:
			return fmt.Sprintf("[%d items]", v.Len())
		}
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return "{...}"
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// sortedKeys returns map keys in string order, so tables are stable.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}

// isTTY returns true if the file is a terminal.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
