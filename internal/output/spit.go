// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/tfctl/revctl/internal/attrs"
	"github.com/tfctl/revctl/internal/config"
	"github.com/tfctl/revctl/internal/filters"
	"github.com/tfctl/revctl/internal/log"
)

// InterfaceToString converts a row value to its table form. A custom empty
// value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Line counts are the only numbers we render.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}

// SliceDiceSpit filters, transforms, sorts and renders a JSON:API document
// according to the command's output flags. parent selects the array of
// resources within raw, typically "data". postProcess, if given, sees the
// final rows before a text table is drawn.
func SliceDiceSpit(raw bytes.Buffer,
	attrs attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer,
	postProcess func([]map[string]interface{}) error) error {

	if w == nil {
		w = os.Stdout
	}

	output := cmd.String("output")
	if output == "raw" {
		_, err := w.Write(raw.Bytes())
		return err
	}

	dataset := gjson.Parse(raw.String())
	if parent != "" {
		dataset = dataset.Get(parent)
	}

	rows := filters.FilterDataset(dataset, attrs, cmd.String("filter"))

	rows, err := filters.Where(rows, cmd.String("where"))
	if err != nil {
		return err
	}

	// Every attr gets the local time transform. Values that are not
	// timestamps pass through untouched.
	if cmd.Bool("local") {
		for a := range attrs {
			attrs[a].TransformSpec += "t"
		}
	}

	for _, row := range rows {
		for _, attr := range attrs {
			if attr.TransformSpec != "" {
				row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
			}
		}
	}

	SortDataset(rows, cmd.String("sort"))

	// Structured output is always a list, never null.
	if rows == nil {
		rows = []map[string]interface{}{}
	}

	switch output {
	case "json":
		out, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("yaml marshal: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		if postProcess != nil {
			if err := postProcess(rows); err != nil {
				log.Errorf("postProcess: %v", err)
			}
		}
		TableWriter(rows, attrs, cmd, w)
	}

	return nil
}

// TableWriter renders rows as a borderless table honoring --color, --titles
// and --padding. cmd.Metadata may carry "header" and "footer" lines, and an
// "empty" line printed in place of a table with no rows.
func TableWriter(
	resultSet []map[string]interface{},
	attrs attrs.AttrList,
	cmd *cli.Command,
	w io.Writer) {

	if w == nil {
		w = os.Stdout
	}

	if len(resultSet) == 0 {
		if msg, ok := cmd.Metadata["empty"].(string); ok && msg != "" {
			fmt.Fprintln(w, msg)
		}
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left).Bold(true)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	colored := cmd.Bool("color")
	if colored {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(headerColor)
		evenRowStyle = evenRowStyle.Foreground(evenColor)
		oddRowStyle = oddRowStyle.Foreground(oddColor)
	}

	included := attrs.Included()
	statusCol := -1
	for i, attr := range included {
		if attr.OutputKey == "status" {
			statusCol = i
		}
	}

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(included))
		for _, attr := range included {
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	if header, ok := cmd.Metadata["header"].(string); ok {
		fmt.Fprintln(w, headerStyle.Render(header))
	}

	pad := cmd.Int("padding")
	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if colored && col == statusCol && row >= 0 && row < len(rows) {
				if c, ok := statusColor(rows[row][col]); ok {
					style = style.Foreground(c)
				}
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if cmd.Bool("titles") {
		headers := make([]string, 0, len(included))
		for _, attr := range included {
			headers = append(headers, attr.OutputKey)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)

	if footer, ok := cmd.Metadata["footer"].(string); ok {
		fmt.Fprintln(w, headerStyle.Render(footer))
	}
}

// getColors returns the title, even row and odd row colors. Configured
// values win; otherwise a default suited to the terminal background is used.
func getColors(key string) (header, even, odd color.Color) {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	resolveColor := func(key string, light string, dark string) color.Color {
		if c, err := config.GetString(key); err == nil && c != "" {
			return lipgloss.Color(c)
		}
		if isDark {
			return lipgloss.Color(dark)
		}
		return lipgloss.Color(light)
	}

	header = resolveColor(key+".title", "#b08800", "#f6be00")
	even = resolveColor(key+".even", "#333333", "#ffffff")
	odd = resolveColor(key+".odd", "#0088a0", "#00c8f0")

	return
}

var defaultStatusColors = map[string]string{
	"Added":    "#2da44e",
	"Deleted":  "#cf222e",
	"Modified": "#bf8700",
	"Renamed":  "#8250df",
	"Copied":   "#8250df",
	"Unmerged": "#cf222e",
	"Unknown":  "#6e7781",
}

// statusColor picks the color for a status name, honoring
// colors.status.<name> from config.
func statusColor(status string) (color.Color, bool) {
	def, ok := defaultStatusColors[status]
	if !ok {
		return nil, false
	}
	c, _ := config.GetString("colors.status."+strings.ToLower(status), def)
	return lipgloss.Color(c), true
}
