package cli

import (
	"io"
	"os"

	"github.com/pkg/browser"
	"github.com/ppiankov/a11yspectre/internal/logging"
	"github.com/ppiankov/a11yspectre/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var uiCmd = &cobra.Command{
	Use:   "ui [url]",
	Short: "Interactive checker with report history",
	Long: `UI opens a terminal interface with a URL field, HTML/PDF toggles and
the report history. Checks run in the background; the history refreshes
when each one finishes.

Log output is written only to log_file while the UI is open.

Example:
  a11yspectre ui
  a11yspectre ui https://example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUI,
}

// isTerminal reports whether stdout is interactive. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// detachViewer keeps the file viewer helper's output off the alt screen.
func detachViewer() (restore func()) {
	stdout, stderr := browser.Stdout, browser.Stderr
	browser.Stdout, browser.Stderr = io.Discard, io.Discard
	return func() {
		browser.Stdout, browser.Stderr = stdout, stderr
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	if !isTerminal() {
		return &ValidationError{Message: "ui needs an interactive terminal; use 'a11yspectre check <url>' instead"}
	}

	restore := logging.DetachTerminal(cfg.LogFile)
	defer restore()
	defer detachViewer()()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logging.Log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	deps := tui.Deps{
		Checker: a.checker,
		History: a.store,
		Formats: splitFormats(cfg.Formats),
	}
	if len(args) == 1 {
		deps.URL = args[0]
	}

	return tui.Run(ctx, deps)
}
