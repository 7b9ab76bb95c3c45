package models

import "time"

// DateLayout is the persisted timestamp format of a ReportRecord.
// It sorts lexically in chronological order.
const DateLayout = "2006-01-02 15:04:05"

// ReportArtifact is one rendered output file.
type ReportArtifact struct {
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generated_at"`
	Format      Format    `json:"format"`
	Path        string    `json:"path"`
}

// ReportRecord is one persisted history row.
type ReportRecord struct {
	ID              int64  `json:"id"`
	URL             string `json:"url"`
	Date            string `json:"date"`
	TotalViolations int    `json:"total_violations"`
	Format          Format `json:"format"`
	FilePath        string `json:"file_path"`
}
