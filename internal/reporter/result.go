package reporter

import (
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
)

// Check statuses
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// CheckResult is the terminal and machine-readable view of one check.
type CheckResult struct {
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`

	// Set when Status is failed
	FailureKind string `json:"failure_kind,omitempty"`
	Message     string `json:"message,omitempty"`

	PageTitle     string        `json:"page_title,omitempty"`
	EngineVersion string        `json:"engine_version,omitempty"`
	CrawlDelay    time.Duration `json:"crawl_delay,omitempty"`

	Summary    *ranker.Summary          `json:"summary,omitempty"`
	Trend      *ranker.Trend            `json:"trend,omitempty"`
	Violations []models.RankedViolation `json:"violations,omitempty"`
	Artifacts  []models.ReportArtifact  `json:"artifacts"`
	Errors     []FormatError            `json:"errors,omitempty"`
}

// FormatError records a per-format render or persistence failure.
type FormatError struct {
	Format  models.Format `json:"format"`
	Stage   string        `json:"stage"`
	Message string        `json:"message"`
}
