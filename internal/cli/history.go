package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/reporter"
	"github.com/spf13/cobra"
)

var (
	historyFormat string
	historyURL    string
	historyLastN  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded reports, newest first",
	Long: `History lists every report recorded by 'check' and the interactive UI.

Example:
  a11yspectre history
  a11yspectre history --url https://example.com --last 5
  a11yspectre history --format json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFormat, "format", "text",
		"output format: text or json")
	historyCmd.Flags().StringVar(&historyURL, "url", "",
		"only show reports for this URL")
	historyCmd.Flags().IntVarP(&historyLastN, "last", "n", 0,
		"only show the N most recent reports (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyFormat != "text" && historyFormat != "json" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", historyFormat)}
	}

	records, err := loadHistory(cmd, historyURL, historyLastN)
	if err != nil {
		return err
	}

	if historyFormat == "json" {
		return reporter.NewJSONReporter(os.Stdout, true).GenerateHistory(records)
	}
	return reporter.NewTextReporter(os.Stdout, nil).GenerateHistory(records)
}

// loadHistory reads the history database and applies the url and last-N
// filters shared by history and export.
func loadHistory(cmd *cobra.Command, url string, lastN int) ([]models.ReportRecord, error) {
	if lastN < 0 {
		return nil, &ValidationError{Message: "--last cannot be negative"}
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	records, err := store.LoadAll(cmd.Context())
	if err != nil {
		return nil, err
	}

	records = selectRecords(records, url, lastN)
	logVerbose("Loaded %d report(s)", len(records))
	return records, nil
}

// selectRecords keeps records for url (all when empty), then the first lastN.
// records are ordered newest first.
func selectRecords(records []models.ReportRecord, url string, lastN int) []models.ReportRecord {
	url = strings.TrimSpace(url)
	selected := make([]models.ReportRecord, 0, len(records))
	for _, rec := range records {
		if url != "" && rec.URL != url {
			continue
		}
		selected = append(selected, rec)
		if lastN > 0 && len(selected) == lastN {
			break
		}
	}
	return selected
}
