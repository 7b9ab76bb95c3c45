package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/storage"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var (
	exportFormat string
	exportOutput string
	exportURL    string
	exportLastN  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report history for spreadsheets and dashboards",
	Long: `Export writes the recorded report history, newest first.

Supported formats:
  csv    Tabular format for spreadsheets
  xlsx   Excel workbook with one "History" sheet
  json   Structured JSON for programmatic consumption

Example:
  a11yspectre export --format csv -o history.csv
  a11yspectre export --format xlsx -o history.xlsx
  a11yspectre export --format json --url https://example.com --last 10`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv",
		"output format: csv, xlsx, or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"write output to file (default: stdout)")
	exportCmd.Flags().StringVar(&exportURL, "url", "",
		"only export reports for this URL")
	exportCmd.Flags().IntVarP(&exportLastN, "last", "n", 0,
		"number of recent reports to include (0 = all)")
}

// HistoryExport is the full JSON export payload.
type HistoryExport struct {
	ExportedAt  string         `json:"exported_at"`
	ReportCount int            `json:"report_count"`
	Reports     []ExportRecord `json:"reports"`
}

// ExportRecord is one history row plus whether its file is still on disk.
type ExportRecord struct {
	models.ReportRecord
	FileExists bool `json:"file_exists"`
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "csv", "xlsx", "json":
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use csv, xlsx, or json)", exportFormat)}
	}

	records, err := loadHistory(cmd, exportURL, exportLastN)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No reports recorded. Run 'a11yspectre check <url>' first.")
		return nil
	}

	export := buildHistoryExport(records, storage.Exists, time.Now())

	var writer io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		writer = f
	}

	logVerbose("Exporting %d report(s)", export.ReportCount)

	switch exportFormat {
	case "json":
		return writeExportJSON(writer, export)
	case "xlsx":
		return writeXLSX(writer, export)
	default:
		return writeCSV(writer, export)
	}
}

var exportHeader = []string{"id", "date", "url", "format", "total_violations", "file_path", "file_exists"}

func buildHistoryExport(records []models.ReportRecord, exists func(string) bool, now time.Time) *HistoryExport {
	rows := make([]ExportRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ExportRecord{
			ReportRecord: rec,
			FileExists:   exists(rec.FilePath),
		})
	}

	return &HistoryExport{
		ExportedAt:  now.UTC().Format(time.RFC3339),
		ReportCount: len(rows),
		Reports:     rows,
	}
}

func writeCSV(w io.Writer, export *HistoryExport) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	for _, r := range export.Reports {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.URL,
			string(r.Format),
			strconv.Itoa(r.TotalViolations),
			r.FilePath,
			strconv.FormatBool(r.FileExists),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// xlsxSheet is the single sheet of an xlsx export.
const xlsxSheet = "History"

func writeXLSX(w io.Writer, export *HistoryExport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "G1", bold); err != nil {
		return err
	}

	for i, r := range export.Reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.ID, r.Date, r.URL, string(r.Format), r.TotalViolations, r.FilePath, r.FileExists}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(xlsxSheet, "B", "B", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(xlsxSheet, "C", "C", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(xlsxSheet, "F", "F", 50); err != nil {
		return err
	}

	return f.Write(w)
}

func writeExportJSON(w io.Writer, export *HistoryExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
