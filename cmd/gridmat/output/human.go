// human.go - Human-readable output formatter.
// A styled status line, a row table and a statistics footer.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const indentUnit = "  "

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// HumanFormatter produces terminal output.
type HumanFormatter struct {
	// MaxRows truncates the table; zero prints every row.
	MaxRows int
}

// Format writes the status line, the table and the statistics.
func (h *HumanFormatter) Format(w io.Writer, r *Report) error {
	var sb strings.Builder

	sb.WriteString(h.status(r))
	sb.WriteString("\n\n")

	if len(r.Rows) > 0 {
		sb.WriteString(h.table(r))
		sb.WriteString("\n\n")
	}

	sb.WriteString(dimStyle.Render(h.stats(r)))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (h *HumanFormatter) status(r *Report) string {
	rows := humanize.Comma(int64(len(r.Rows)))
	switch {
	case r.Error != "":
		return errStyle.Render("[Error]") + fmt.Sprintf(" %s: %s rows collected, %s", r.Command, rows, r.Error)
	case r.Complete:
		return okStyle.Render("[OK]") + fmt.Sprintf(" %s: %s rows materialized", r.Command, rows)
	default:
		msg := fmt.Sprintf(" %s: %s rows, incomplete", r.Command, rows)
		if r.Reason != "" {
			msg += " (" + r.Reason + ")"
		}
		return warnStyle.Render("[Partial]") + msg
	}
}

func (h *HumanFormatter) table(r *Report) string {
	cols := r.Columns()

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Format.Footer = text.FormatDefault

	header := table.Row{"#", ""}
	for _, c := range cols {
		header = append(header, c)
	}
	tbl.AppendHeader(header)

	rows := r.Rows
	if h.MaxRows > 0 && len(rows) > h.MaxRows {
		rows = rows[:h.MaxRows]
	}
	for _, row := range rows {
		marker := " "
		if row.Toggle {
			marker = "-"
		}
		out := table.Row{row.Index, marker}
		for i, c := range cols {
			v := row.Cells[c]
			if i == 0 {
				v = strings.Repeat(indentUnit, row.Depth) + v
			}
			out = append(out, v)
		}
		tbl.AppendRow(out)
	}
	if len(rows) < len(r.Rows) {
		tbl.AppendFooter(table.Row{"", "", fmt.Sprintf("... %s more", humanize.Comma(int64(len(r.Rows)-len(rows))))})
	}
	return tbl.Render()
}

func (h *HumanFormatter) stats(r *Report) string {
	parts := []string{
		fmt.Sprintf("%s steps", humanize.Comma(int64(r.Steps))),
		fmt.Sprintf("%s gap retries", humanize.Comma(int64(r.GapRetries))),
		fmt.Sprintf("%s deferrals", humanize.Comma(int64(r.Deferrals))),
		"took " + r.Elapsed.Round(time.Millisecond).String(),
		"height " + humanize.Commaf(r.Height) + "px",
	}
	if len(r.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", len(r.Missing)))
	}
	if r.Filtered > 0 {
		parts = append(parts, fmt.Sprintf("%d managed filtered", r.Filtered))
	}
	return strings.Join(parts, ", ")
}
