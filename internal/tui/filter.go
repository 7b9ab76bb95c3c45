package tui

import (
	"sort"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// filterState holds current active filters.
type filterState struct {
	Format     models.Format
	SearchText string
}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortByDate sortField = iota
	sortByViolations
	sortByURL
)

// sortFieldCount is the total number of sortable columns.
const sortFieldCount = 3

// formatChoices is the cycle order of the format filter; empty means all.
var formatChoices = []models.Format{"", models.FormatHTML, models.FormatPDF}

// applyFilters returns records matching all active filters.
func applyFilters(records []models.ReportRecord, f filterState) []models.ReportRecord {
	result := make([]models.ReportRecord, 0, len(records))
	searchLower := strings.ToLower(f.SearchText)

	for _, rec := range records {
		if f.Format != "" && rec.Format != f.Format {
			continue
		}
		if searchLower != "" && !matchesSearch(rec, searchLower) {
			continue
		}
		result = append(result, rec)
	}
	return result
}

func matchesSearch(rec models.ReportRecord, searchLower string) bool {
	return strings.Contains(strings.ToLower(rec.URL), searchLower) ||
		strings.Contains(strings.ToLower(rec.FilePath), searchLower) ||
		strings.Contains(rec.Date, searchLower)
}

// sortRecords sorts records in place. Date order is the store's own order
// (newest first) and is kept stable.
func sortRecords(records []models.ReportRecord, field sortField) {
	sort.SliceStable(records, func(i, j int) bool {
		switch field {
		case sortByDate:
			if records[i].Date != records[j].Date {
				return records[i].Date > records[j].Date
			}
			return records[i].ID > records[j].ID
		case sortByViolations:
			return records[i].TotalViolations > records[j].TotalViolations
		case sortByURL:
			return records[i].URL < records[j].URL
		default:
			return false
		}
	})
}

// nextFormat returns the filter after f in formatChoices.
func nextFormat(f models.Format) models.Format {
	for i, c := range formatChoices {
		if c == f {
			return formatChoices[(i+1)%len(formatChoices)]
		}
	}
	return ""
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortByDate:
		return "date"
	case sortByViolations:
		return "violations"
	case sortByURL:
		return "url"
	default:
		return "unknown"
	}
}
