package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pkg/browser"
	"github.com/ppiankov/a11yspectre/internal/storage"
	"github.com/ppiankov/a11yspectre/internal/tui"
	"github.com/spf13/cobra"
)

// openFile shows a report in the default viewer. Replaced in tests.
var openFile = browser.OpenFile

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a recorded report in the default viewer",
	Long: `Open looks up a report by the id shown in 'history' and opens its
file with the system's default application.

Example:
  a11yspectre open 12`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return &ValidationError{Message: fmt.Sprintf("invalid report id: %s", args[0])}
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec, err := store.Get(cmd.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return &ValidationError{Message: err.Error()}
	}
	if err != nil {
		return err
	}

	if !storage.Exists(rec.FilePath) {
		return fmt.Errorf("%s: %s", tui.MsgFileNotFound, rec.FilePath)
	}

	logVerbose("Opening %s", rec.FilePath)
	if err := openFile(rec.FilePath); err != nil {
		return fmt.Errorf("failed to open %s: %w", rec.FilePath, err)
	}
	return nil
}
