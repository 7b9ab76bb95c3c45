package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ppiankov/a11yspectre/internal/checker"
	"github.com/ppiankov/a11yspectre/internal/config"
	"github.com/ppiankov/a11yspectre/internal/logging"
	"github.com/ppiankov/a11yspectre/internal/policy"
	"github.com/spf13/cobra"
)

const (
	ExitOK           = 0 // Success
	ExitPolicyFail   = 1 // Violations exceed threshold or policy
	ExitInvalidInput = 2 // Bad URL, format or flags
	ExitRuntimeError = 3 // Robots, audit, render or storage failure
)

var (
	// Global config instance
	cfg *config.Config

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	buildVersion = "dev"
)

// SetVersion is called from main with the linker-provided version.
func SetVersion(v string) {
	buildVersion = v
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "a11yspectre",
	Short: "a11yspectre - Accessibility checker for web pages",
	Long: `a11yspectre audits a single web page against the axe-core rule set,
ranks the violations by severity and writes HTML and/or PDF reports.
Every report is recorded in a local history database.

Pages are only audited when the site's robots.txt allows it.

Quick start:
  a11yspectre doctor
  a11yspectre check https://example.com
  a11yspectre ui

Other commands:
  a11yspectre history --url https://example.com
  a11yspectre open 12
  a11yspectre export --format csv -o history.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with flags if provided
		if verbose {
			cfg.Verbose = true
		}
		if debug {
			cfg.Debug = true
		}

		level := cfg.LogLevel
		if cfg.Debug {
			level = "debug"
		}
		return logging.Configure(logging.Options{
			Level: level,
			JSON:  cfg.LogJSON,
			File:  cfg.LogFile,
		})
	},
}

// Execute runs the root command and exits with the mapped code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var silent *exitError
		if !errors.As(err, &silent) {
			logError("%v", err)
		}
		os.Exit(HandleError(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./a11yspectre.yaml or ~/a11yspectre.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("a11yspectre %s\n", buildVersion)
		fmt.Println("Accessibility checks with robots.txt courtesy")
	},
}

// HandleError determines the appropriate exit code for an error
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		validation *ValidationError
		threshold  *ThresholdExceededError
		breach     *PolicyError
		failure    *checker.Failure
		exit       *exitError
	)

	switch {
	case errors.As(err, &exit):
		return exit.code
	case errors.As(err, &validation):
		return ExitInvalidInput
	case errors.As(err, &threshold), errors.As(err, &breach):
		return ExitPolicyFail
	case errors.As(err, &failure):
		if failure.Kind == checker.InputValidation {
			return ExitInvalidInput
		}
		return ExitRuntimeError
	default:
		return ExitRuntimeError
	}
}

// ValidationError represents bad command-line input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ThresholdExceededError represents a fail_threshold breach
type ThresholdExceededError struct {
	ViolationCount int
	Threshold      int
}

func (e *ThresholdExceededError) Error() string {
	return fmt.Sprintf("violation count (%d) exceeds threshold (%d)", e.ViolationCount, e.Threshold)
}

// PolicyError lists the policy rules a check broke
type PolicyError struct {
	Breaches []policy.Breach
}

func (e *PolicyError) Error() string {
	msgs := make([]string, 0, len(e.Breaches))
	for _, b := range e.Breaches {
		msgs = append(msgs, b.Message)
	}
	return "policy failed: " + strings.Join(msgs, "; ")
}

// exitError carries an exit code for a failure that was already reported
// to the operator.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// logVerbose logs at info level when verbose mode is enabled
func logVerbose(format string, args ...interface{}) {
	if cfg != nil && cfg.Verbose {
		logging.Log.Infof(format, args...)
	}
}

// logDebug logs at debug level when debug mode is enabled
func logDebug(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		logging.Log.Debugf(format, args...)
	}
}

// logError logs an error message
func logError(format string, args ...interface{}) {
	logging.Log.Errorf(format, args...)
}
