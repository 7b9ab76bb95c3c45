package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/checker"
	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader summarises the last check. sparkline is the violation count
// of earlier scans of the same URL, oldest first.
func renderHeader(last *checker.Outcome, sparkline []int, width int) string {
	var b strings.Builder

	if last == nil || last.Raw == nil {
		b.WriteString("a11yspectre  Accessibility Checker\n")
		if last != nil {
			b.WriteString(fmt.Sprintf("Last check: %s\n", truncate(last.URL, 60)))
		} else {
			b.WriteString("No check run yet\n")
		}
		return styleHeader.Width(width).Render(strings.TrimRight(b.String(), "\n"))
	}

	summary := last.Summary

	// Line 1: title and health
	healthText := healthStyle(summary.HealthScore).Render(
		fmt.Sprintf("%s (%.0f%%)", strings.ToUpper(summary.HealthScore), summary.ScorePercent),
	)
	b.WriteString(fmt.Sprintf("a11yspectre  Health: %s", healthText))

	if last.Trend != nil {
		b.WriteString(fmt.Sprintf("  %s %+d", ranker.TrendIndicator(last.Trend.Direction), last.Trend.Change))
	}
	b.WriteString("\n")

	// Line 2: URL and totals
	b.WriteString(fmt.Sprintf("%s  Violations: %d  Elements: %d  Passes: %d",
		truncate(last.URL, 48), summary.TotalViolations, summary.AffectedNodes, summary.Passes))
	b.WriteString("\n")

	// Line 3: impact breakdown
	parts := make([]string, 0, len(models.Impacts))
	for _, impact := range models.Impacts {
		if count := summary.ByImpact[impact]; count > 0 {
			label := fmt.Sprintf("%s:%d", strings.ToUpper(string(impact)[:1]), count)
			parts = append(parts, impactStyle(string(impact)).Render(label))
		}
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, "  "))
	}
	b.WriteString("\n")

	// Line 4: sparkline
	if len(sparkline) > 1 {
		b.WriteString("History: ")
		b.WriteString(renderSparkline(sparkline))
	}

	return styleHeader.Width(width).Render(b.String())
}

// violationSeries returns violation counts for url, oldest first, with one
// entry per check. records are newest first; formats of one check share a date.
func violationSeries(url string, records []models.ReportRecord) []int {
	var series []int
	lastDate := ""
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.URL != url || rec.Date == lastDate {
			continue
		}
		lastDate = rec.Date
		series = append(series, rec.TotalViolations)
	}
	return series
}

// renderSparkline converts an int slice to a unicode sparkline string.
func renderSparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}

	bars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		if max == min {
			b.WriteRune(bars[len(bars)/2])
		} else {
			normalized := float64(v-min) / float64(max-min)
			idx := int(normalized * float64(len(bars)-1))
			b.WriteRune(bars[idx])
		}
	}

	b.WriteString(fmt.Sprintf(" [%d→%d]", values[0], values[len(values)-1]))
	return b.String()
}
