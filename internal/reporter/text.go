package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
)

// DefaultTopViolations is how many ranked violations the terminal summary lists.
const DefaultTopViolations = 10

// TextReporter generates human-readable terminal summaries
type TextReporter struct {
	writer io.Writer
	top    int
	loc    *time.Location
}

// NewTextReporter creates a new text reporter
func NewTextReporter(writer io.Writer, loc *time.Location) *TextReporter {
	if loc == nil {
		loc = time.Local
	}
	return &TextReporter{
		writer: writer,
		top:    DefaultTopViolations,
		loc:    loc,
	}
}

// Generate writes the summary of one check
func (r *TextReporter) Generate(result *CheckResult) error {
	r.printHeader()
	r.printf("URL: %s\n", result.URL)
	if result.PageTitle != "" {
		r.printf("Page: %s\n", result.PageTitle)
	}
	r.printf("Timestamp: %s\n\n", r.formatTimestamp(result.GeneratedAt))

	if result.Status == StatusFailed {
		r.printf("Check failed: %s\n", result.Message)
		if result.FailureKind != "" {
			r.printf("  Stage: %s\n", result.FailureKind)
		}
		return nil
	}

	if result.Summary != nil {
		r.printSummary(*result.Summary, result.Trend)
	}

	if len(result.Violations) > 0 {
		r.printViolations(result.Violations)
	}

	r.printArtifacts(result.Artifacts)

	if len(result.Errors) > 0 {
		r.printErrors(result.Errors)
	}

	if result.Status == StatusPartial {
		r.printf("\nCheck completed with errors: not every requested report was produced.\n")
	}

	return nil
}

// GenerateHistory writes the scan history as a table
func (r *TextReporter) GenerateHistory(records []models.ReportRecord) error {
	if len(records) == 0 {
		r.printf("No reports yet.\n")
		return nil
	}

	r.printf("%-5s  %-19s  %-6s  %10s  %s\n", "ID", "DATE", "FORMAT", "VIOLATIONS", "URL")
	for _, rec := range records {
		r.printf("%-5d  %-19s  %-6s  %10d  %s\n", rec.ID, rec.Date, rec.Format, rec.TotalViolations, rec.URL)
	}
	return nil
}

// printHeader prints the report header
func (r *TextReporter) printHeader() {
	r.printf("╔════════════════════════════════════════════╗\n")
	r.printf("║      a11yspectre Accessibility Check       ║\n")
	r.printf("╚════════════════════════════════════════════╝\n\n")
}

// printSummary prints the overall summary section
func (r *TextReporter) printSummary(s ranker.Summary, trend *ranker.Trend) {
	r.printf("Summary:\n")
	r.printf("--------------------------------------------------\n")
	r.printf("  Violations: %d (%d elements affected)\n", s.TotalViolations, s.AffectedNodes)
	r.printf("  Passes: %d\n", s.Passes)
	r.printf("  Needs Review: %d\n", s.Incomplete)
	r.printf("  Health Score: %s", strings.ToUpper(s.HealthScore))

	if s.ScorePercent > 0 {
		r.printf(" (%.1f%%)", s.ScorePercent)
	}

	if trend != nil {
		r.printf(" %s %d since %s", ranker.TrendIndicator(trend.Direction), trend.Change, trend.ComparedWith)
	}

	r.printf("\n\n")

	if s.TotalViolations > 0 {
		r.printf("Violations by Impact:\n")
		for _, impact := range models.Impacts {
			if n := s.ByImpact[impact]; n > 0 {
				r.printf("  %s: %d\n", impactTitle(impact), n)
			}
		}
		r.printf("\n")
	}
}

// printViolations lists the highest-ranked violations
func (r *TextReporter) printViolations(violations []models.RankedViolation) {
	r.printf("Top Violations:\n")
	r.printf("--------------------------------------------------\n")

	limit := len(violations)
	if r.top > 0 && limit > r.top {
		limit = r.top
	}

	for i, v := range violations[:limit] {
		r.printf("  %d. [%s] %s (score %d, %d elements)\n",
			i+1, strings.ToUpper(string(v.ImpactOrUnknown())), v.ID, v.SeverityScore, v.NumNodes)
		if v.Help != "" {
			r.printf("     %s\n", v.Help)
		}
	}

	if limit < len(violations) {
		r.printf("  ... and %d more (see the full report)\n", len(violations)-limit)
	}
	r.printf("\n")
}

// printArtifacts lists the produced report files
func (r *TextReporter) printArtifacts(artifacts []models.ReportArtifact) {
	if len(artifacts) == 0 {
		return
	}
	r.printf("Reports:\n")
	for _, a := range artifacts {
		r.printf("  %s: %s\n", strings.ToUpper(string(a.Format)), a.Path)
	}
}

// printErrors lists per-format failures
func (r *TextReporter) printErrors(errs []FormatError) {
	r.printf("\nErrors:\n")
	for _, e := range errs {
		r.printf("  %s %s: %s\n", strings.ToUpper(string(e.Format)), e.Stage, e.Message)
	}
}

// printf is a helper to write formatted output
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

// formatTimestamp formats a timestamp for display
func (r *TextReporter) formatTimestamp(t time.Time) string {
	return t.In(r.loc).Format(TimeLayout)
}

func impactTitle(i models.Impact) string {
	s := string(i)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
