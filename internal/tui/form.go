package tui

import (
	"strings"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// formatToggles are the report type checkboxes.
type formatToggles struct {
	HTML bool
	PDF  bool
}

// Selected returns the chosen formats in render order.
func (t formatToggles) Selected() []models.Format {
	var formats []models.Format
	if t.HTML {
		formats = append(formats, models.FormatHTML)
	}
	if t.PDF {
		formats = append(formats, models.FormatPDF)
	}
	return formats
}

func checkbox(label string, on bool) string {
	if on {
		return "[x] " + label
	}
	return "[ ] " + label
}

// renderForm draws the URL field, the format toggles, the trigger and the
// status line.
func (m *Model) renderForm() string {
	var b strings.Builder

	b.WriteString("URL: ")
	b.WriteString(m.urlInput.View())
	b.WriteString("\n")

	b.WriteString(checkbox("HTML", m.formats.HTML))
	b.WriteString("   ")
	b.WriteString(checkbox("PDF", m.formats.PDF))
	b.WriteString("   ")

	if m.running {
		b.WriteString(styleDisabled.Render(m.spinner.View() + " Generating..."))
	} else {
		b.WriteString("[ Generate Report ]")
	}
	b.WriteString("\n")

	if m.statusMsg != "" {
		style := styleStatus
		if m.statusErr {
			style = styleError
		}
		b.WriteString(style.Render(m.statusMsg))
	}

	if m.focus == focusForm {
		return styleFormFocused.Width(m.width - 1).Render(b.String())
	}
	return styleForm.Width(m.width).Render(b.String())
}
