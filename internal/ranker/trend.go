package ranker

import "github.com/ppiankov/a11yspectre/internal/models"

// Trend directions
const (
	TrendImproving = "improving"
	TrendDegrading = "degrading"
	TrendStable    = "stable"
)

// Trend compares a check with the previous recorded scan of the same URL.
type Trend struct {
	PreviousViolations int     `json:"previous_violations"`
	CurrentViolations  int     `json:"current_violations"`
	Change             int     `json:"change"`
	ChangePercent      float64 `json:"change_percent"`
	Direction          string  `json:"direction"`
	ComparedWith       string  `json:"compared_with"`
}

// CalculateTrend returns nil when there is no previous record.
func CalculateTrend(current int, previous *models.ReportRecord) *Trend {
	if previous == nil {
		return nil
	}

	trend := &Trend{
		PreviousViolations: previous.TotalViolations,
		CurrentViolations:  current,
		Change:             current - previous.TotalViolations,
		ComparedWith:       previous.Date,
	}

	if previous.TotalViolations > 0 {
		trend.ChangePercent = float64(trend.Change) / float64(previous.TotalViolations) * 100.0
	}

	switch {
	case trend.Change < 0:
		trend.Direction = TrendImproving
	case trend.Change > 0:
		trend.Direction = TrendDegrading
	default:
		trend.Direction = TrendStable
	}

	return trend
}

// PreviousFor returns the newest record for url. records must be ordered
// newest first, as ReportStore.LoadAll returns them.
func PreviousFor(url string, records []models.ReportRecord) *models.ReportRecord {
	for i := range records {
		if records[i].URL == url {
			return &records[i]
		}
	}
	return nil
}

// TrendIndicator returns a visual indicator for trend direction
func TrendIndicator(direction string) string {
	switch direction {
	case TrendImproving:
		return "↓"
	case TrendDegrading:
		return "↑"
	case TrendStable:
		return "→"
	default:
		return "?"
	}
}
