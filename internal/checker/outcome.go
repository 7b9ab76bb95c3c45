package checker

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
	"github.com/ppiankov/a11yspectre/internal/reporter"
	"github.com/ppiankov/a11yspectre/internal/robots"
)

// FailureKind classifies why a check stopped.
type FailureKind string

const (
	InputValidation    FailureKind = "input_validation"
	RobotsDisallowed   FailureKind = "robots_disallowed"
	RobotsCheckFailed  FailureKind = "robots_check_failed"
	AuditFailure       FailureKind = "audit_failure"
	RenderFailure      FailureKind = "render_failure"
	PersistenceFailure FailureKind = "persistence_failure"
)

// State is a stage of the check pipeline.
type State string

const (
	StateIdle            State = "idle"
	StateValidatingInput State = "validating_input"
	StateCheckingRobots  State = "checking_robots"
	StateAuditing        State = "auditing"
	StateRanking         State = "ranking"
	StateRendering       State = "rendering"
	StatePersisting      State = "persisting"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// MsgRobotsDisallowed is shown when robots.txt forbids the page.
const MsgRobotsDisallowed = "Scraping disallowed by robots.txt"

// Per-format error stages.
const (
	StageRender  = "render"
	StageWrite   = "write"
	StagePersist = "persist"
)

// Failure is the single human-readable reason a check ended early.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Request is one check to run.
type Request struct {
	URL     string
	Formats []models.Format
}

// Outcome is everything a check produced, successful or not.
type Outcome struct {
	Request     Request
	URL         string
	State       State
	Failure     *Failure
	StartedAt   time.Time
	GeneratedAt time.Time

	Robots  robots.Decision
	Raw     *models.RawAuditResult
	Ranked  []models.RankedViolation
	Summary ranker.Summary
	Trend   *ranker.Trend

	Artifacts    []models.ReportArtifact
	Records      []models.ReportRecord
	FormatErrors []reporter.FormatError
}

// OK reports whether every requested format was rendered and recorded.
func (o *Outcome) OK() bool {
	return o.Failure == nil && len(o.FormatErrors) == 0
}

// Status returns reporter.StatusOK, StatusPartial or StatusFailed.
func (o *Outcome) Status() string {
	switch {
	case o.Failure != nil:
		return reporter.StatusFailed
	case len(o.FormatErrors) > 0:
		return reporter.StatusPartial
	default:
		return reporter.StatusOK
	}
}

// TotalViolations is the number of violated rules, zero before auditing.
func (o *Outcome) TotalViolations() int {
	return o.Raw.BrokenRules()
}

// StatusLine is the one-line notification shown after a check.
func (o *Outcome) StatusLine() string {
	switch o.Status() {
	case reporter.StatusFailed:
		if o.Failure.Kind == InputValidation {
			return o.Failure.Message
		}
		return "Error: " + o.Failure.Message
	case reporter.StatusPartial:
		parts := make([]string, 0, len(o.FormatErrors))
		for _, e := range o.FormatErrors {
			parts = append(parts, fmt.Sprintf("%s %s: %s", strings.ToUpper(string(e.Format)), e.Stage, e.Message))
		}
		return "Report(s) generated with errors: " + strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("Report(s) generated successfully! %d violations found.", o.TotalViolations())
	}
}

// Result converts the outcome for terminal and JSON output.
func (o *Outcome) Result() *reporter.CheckResult {
	res := &reporter.CheckResult{
		URL:         o.URL,
		Status:      o.Status(),
		GeneratedAt: o.GeneratedAt,
		CrawlDelay:  o.Robots.CrawlDelay,
		Trend:       o.Trend,
		Violations:  o.Ranked,
		Artifacts:   o.Artifacts,
		Errors:      o.FormatErrors,
	}
	if res.URL == "" {
		res.URL = o.Request.URL
	}
	if res.GeneratedAt.IsZero() {
		res.GeneratedAt = o.StartedAt
	}
	if res.Artifacts == nil {
		res.Artifacts = []models.ReportArtifact{}
	}
	if o.Failure != nil {
		res.FailureKind = string(o.Failure.Kind)
		res.Message = o.Failure.Message
	}
	if o.Raw != nil {
		summary := o.Summary
		res.Summary = &summary
		res.PageTitle = o.Raw.PageTitle
		res.EngineVersion = o.Raw.TestEngine.Version
	}
	return res
}
