package reporter

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/a11yspectre/internal/models"
)

// JSONReporter generates machine-readable JSON output
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// Generate writes the full check result
func (r *JSONReporter) Generate(result *CheckResult) error {
	return r.write(result)
}

// GenerateSummaryOnly writes the check result without the violation list
func (r *JSONReporter) GenerateSummaryOnly(result *CheckResult) error {
	compact := *result
	compact.Violations = nil
	return r.write(&compact)
}

// GenerateHistory writes history records as a JSON array
func (r *JSONReporter) GenerateHistory(records []models.ReportRecord) error {
	if records == nil {
		records = []models.ReportRecord{}
	}
	return r.write(records)
}

func (r *JSONReporter) write(v interface{}) error {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	_, err = r.writer.Write(data)
	if err != nil {
		return err
	}

	// Add trailing newline for terminal output
	_, err = r.writer.Write([]byte("\n"))
	return err
}
