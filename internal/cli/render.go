package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/freightflow/internal/report"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatTable, FormatJSON, FormatCSV}

// Write renders the report in the given format.
func Write(w io.Writer, rep *report.Report, format string) error {
	switch format {
	case FormatTable, "":
		_, err := io.WriteString(w, RenderReport(rep))
		return err
	case FormatJSON:
		return WriteJSON(w, rep)
	case FormatCSV:
		return WriteCSV(w, rep)
	default:
		return fmt.Errorf("unknown output format %q (use %s)", format, strings.Join(Formats, ", "))
	}
}

// RenderReport renders every section of a report, followed by its warnings.
func RenderReport(rep *report.Report) string {
	var b strings.Builder
	b.WriteString(FormatTitle(title(rep.Name)))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("run %s, %s", rep.RunID, rep.Generated.Format(time.DateTime))))
	b.WriteString("\n\n")

	if rep.NoData() {
		b.WriteString(RenderBox("No data", rep.Notice))
		b.WriteString("\n")
	}

	for _, s := range rep.Sections {
		b.WriteString(RenderSection(s))
		b.WriteString("\n\n")
	}

	if len(rep.Warnings) > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("%d warning(s)", len(rep.Warnings))))
		b.WriteString("\n")
		for _, w := range rep.Warnings {
			b.WriteString(SubtleStyle.Render("  " + w))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderSection renders one section as a bordered table. Sections without
// data render their notice in a box instead.
func RenderSection(s report.Section) string {
	if s.NoData() {
		return RenderBox(s.Title, InfoStyle.Render(s.Notice))
	}

	rows := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = make([]string, len(row))
		for j, c := range row {
			rows[i][j] = c.Display
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		Headers(s.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if row >= 0 && row < len(s.Rows) && col < len(s.Rows[row]) && numeric(s.Rows[row][col]) {
				return TableNumberStyle
			}
			return TableCellStyle
		})

	return lipgloss.JoinVertical(lipgloss.Left, BoldStyle.Render(s.Title), t.String())
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteCSV writes each section as a title row, a header row and its data rows,
// separated by an empty line. Cells carry plain values, not display strings.
func WriteCSV(w io.Writer, rep *report.Report) error {
	cw := csv.NewWriter(w)
	for i, s := range rep.Sections {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{s.Title}); err != nil {
			return err
		}
		if s.NoData() {
			if err := cw.Write([]string{s.Notice}); err != nil {
				return err
			}
			continue
		}
		if err := cw.Write(s.Columns); err != nil {
			return err
		}
		for _, row := range s.Rows {
			record := make([]string, len(row))
			for j, c := range row {
				record[j] = Plain(c)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Plain renders a cell without display formatting, for machine-readable output.
func Plain(c report.Cell) string {
	switch v := c.Value.(type) {
	case decimal.Decimal:
		return v.StringFixed(2)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case time.Time:
		return v.Format(time.DateOnly)
	case string:
		return v
	default:
		return c.Display
	}
}

func numeric(c report.Cell) bool {
	switch c.Value.(type) {
	case decimal.Decimal, float64, int:
		return true
	default:
		return false
	}
}

func title(name string) string {
	if name == "" {
		return "Report"
	}
	return strings.ToUpper(name[:1]) + name[1:] + " report"
}
