package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/a11yspectre/internal/models"
)

var tableColumns = []table.Column{
	{Title: "ID", Width: 5},
	{Title: "Date", Width: 19},
	{Title: "Format", Width: 6},
	{Title: "Violations", Width: 10},
	{Title: "URL", Width: 44},
}

// buildRows converts history records to table rows.
func buildRows(records []models.ReportRecord) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", rec.ID),
			rec.Date,
			strings.ToUpper(string(rec.Format)),
			fmt.Sprintf("%d", rec.TotalViolations),
			truncate(rec.URL, tableColumns[4].Width),
		})
	}
	return rows
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorAccent).
		Bold(false)
	t.SetStyles(s)

	return t
}
