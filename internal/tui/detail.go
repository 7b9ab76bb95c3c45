package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 4

// renderDetail produces the detail view for a selected history record.
func renderDetail(rec *models.ReportRecord, exists bool, width int) string {
	if rec == nil {
		return styleDetailPanel.Width(width).Render("No report selected")
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  #%d  %s\n", strings.ToUpper(string(rec.Format)), rec.ID, rec.URL))
	b.WriteString(fmt.Sprintf("Date: %s  Violations: %d\n", rec.Date, rec.TotalViolations))

	path := rec.FilePath
	if !exists {
		path += "  " + styleError.Render("(missing)")
	}
	b.WriteString(fmt.Sprintf("File: %s", path))

	return styleDetailPanel.Width(width).Render(b.String())
}
