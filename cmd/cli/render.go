package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/thisisjab/herdcomp/executor"
	"github.com/thisisjab/herdcomp/querier/highlight"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5C07B"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E06C75"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D19A66"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#98C379"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3E4451"))
)

func colorize(text string) string {
	var b strings.Builder
	for _, s := range highlight.Highlight(text) {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(s.Value))
	}
	return b.String()
}

func printResult(w io.Writer, res executor.Result) {
	if !res.Success {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render(fmt.Sprintf("error [%s]:", res.ErrorKind)), res.Error)
		return
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, warnStyle.Render("warning: "+d.Message))
	}

	if res.Text != "" {
		fmt.Fprintln(w, res.Text)
	}

	if res.Count != nil && len(res.Data) == 0 {
		fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Count:"), humanize.Comma(*res.Count))
	}

	if len(res.Columns) > 0 && len(res.Data) > 0 {
		fmt.Fprintln(w, renderTable(res.Columns, res.Data))
	}

	if len(res.Aggregates) > 0 {
		keys := make([]string, 0, len(res.Aggregates))
		for k := range res.Aggregates {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			fmt.Fprintf(w, "%s %s\n", keyStyle.Render(k+":"), cell(res.Aggregates[k]))
		}
	}

	noun := "rows"
	if len(res.Data) == 1 {
		noun = "row"
	}
	footer := fmt.Sprintf("%s %s in %dms", humanize.Comma(int64(len(res.Data))), noun, res.ExecutionTime)
	fmt.Fprintln(w, mutedStyle.Render(footer))
}

func renderTable(columns []string, rows []executor.Row) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cell(r[c])
		}
		t.Row(cells...)
	}

	return t.Render()
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		if v == float64(int64(v)) {
			return humanize.Comma(int64(v))
		}
		return humanize.CommafWithDigits(math.Round(v*100)/100, 2)
	case int64:
		return humanize.Comma(v)
	case int:
		return humanize.Comma(int64(v))
	default:
		return fmt.Sprint(v)
	}
}
