package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/a11yspectre/internal/checker"
	"github.com/ppiankov/a11yspectre/internal/logging"
	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/policy"
	"github.com/ppiankov/a11yspectre/internal/reporter"
	"github.com/spf13/cobra"
)

var (
	checkFormats       []string
	checkOutput        string
	checkSummaryOnly   bool
	checkPolicyFile    string
	checkNoPolicy      bool
	checkFailThreshold int
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Audit one page and write accessibility reports",
	Long: `Check consults the site's robots.txt, audits the page in headless
Chromium with axe-core, ranks the violations and writes the requested
reports. Each report is recorded in the history database.

Exit codes:
  0  reports written, no threshold or policy breach
  1  violations exceed --fail-threshold or the policy file
  2  invalid URL, unreachable page or unsupported format
  3  robots.txt refusal, audit, render or storage failure

Example:
  a11yspectre check https://example.com
  a11yspectre check https://example.com --format html,pdf
  a11yspectre check https://example.com --output json --fail-threshold 5`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVarP(&checkFormats, "format", "f", nil,
		"report formats: html, pdf, or html,pdf (default from config)")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text",
		"terminal output: text or json")
	checkCmd.Flags().BoolVar(&checkSummaryOnly, "summary-only", false,
		"omit the violation list from json output")
	checkCmd.Flags().StringVar(&checkPolicyFile, "policy", "",
		"policy file (default: search for .a11yspectre-policy.yaml upward)")
	checkCmd.Flags().BoolVar(&checkNoPolicy, "no-policy", false,
		"skip policy evaluation")
	checkCmd.Flags().IntVar(&checkFailThreshold, "fail-threshold", -1,
		"exit 1 when violations exceed this count (default from config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkOutput != "text" && checkOutput != "json" {
		return &ValidationError{Message: fmt.Sprintf("unsupported output: %s (use text or json)", checkOutput)}
	}
	if checkFailThreshold >= 0 {
		cfg.FailThreshold = checkFailThreshold
	}

	pol, err := loadPolicy()
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logging.Log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	formats := checkFormats
	if !cmd.Flags().Changed("format") {
		formats = cfg.Formats
	}

	requested := splitFormats(formats)
	logVerbose("Checking %s (%s)", args[0], models.FormatNames(requested))
	outcome := a.checker.Check(ctx, checker.Request{
		URL:     args[0],
		Formats: requested,
	})

	if err := writeCheckResult(outcome.Result(), a); err != nil {
		return err
	}

	if outcome.Failure != nil {
		return &exitError{code: HandleError(outcome.Failure), err: outcome.Failure}
	}
	if !outcome.OK() {
		return &exitError{code: ExitRuntimeError, err: fmt.Errorf("%s", outcome.StatusLine())}
	}

	if res := pol.Evaluate(outcome.Summary, outcome.Ranked); !res.Pass {
		return &PolicyError{Breaches: res.Breaches}
	}
	if cfg.ShouldFailOnThreshold(outcome.TotalViolations()) {
		return &ThresholdExceededError{
			ViolationCount: outcome.TotalViolations(),
			Threshold:      cfg.FailThreshold,
		}
	}

	return nil
}

func writeCheckResult(result *reporter.CheckResult, a *app) error {
	if checkOutput == "json" {
		r := reporter.NewJSONReporter(os.Stdout, true)
		if checkSummaryOnly {
			return r.GenerateSummaryOnly(result)
		}
		return r.Generate(result)
	}
	return reporter.NewTextReporter(os.Stdout, a.loc).Generate(result)
}

// loadPolicy returns the explicit policy, the nearest one found from the
// working directory, or nil.
func loadPolicy() (*policy.Policy, error) {
	if checkNoPolicy {
		return nil, nil
	}

	path := checkPolicyFile
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil
		}
		path = policy.FindPolicyFile(wd)
		if path == "" {
			return nil, nil
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("policy file not found: %s", path)
	}

	logVerbose("Using policy %s", path)
	return policy.LoadFromFile(path)
}

// splitFormats accepts both repeated flags and comma-separated values.
// Names are passed through untouched; the checker rejects unknown ones.
func splitFormats(values []string) []models.Format {
	var formats []models.Format
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				formats = append(formats, models.Format(part))
			}
		}
	}
	return formats
}
