package checker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/ranker"
	"github.com/ppiankov/a11yspectre/internal/reporter"
	"github.com/ppiankov/a11yspectre/internal/robots"
	"github.com/ppiankov/a11yspectre/internal/validator"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned by Start while another check is running.
var ErrBusy = errors.New("a check is already running")

// URLValidator performs the input checks.
type URLValidator interface {
	ValidateURL(ctx context.Context, raw string) (string, error)
}

// RobotsGate consults robots.txt.
type RobotsGate interface {
	Check(ctx context.Context, url string) (robots.Decision, error)
}

// Auditor loads a page and runs the rule engine.
type Auditor interface {
	Run(ctx context.Context, url string) (*models.RawAuditResult, error)
}

// ArtifactWriter stores rendered documents.
type ArtifactWriter interface {
	Write(ts time.Time, format models.Format, data []byte) (string, error)
}

// Store records produced reports.
type Store interface {
	Add(ctx context.Context, url string, totalViolations int, format models.Format, filePath string) (models.ReportRecord, error)
	LoadAll(ctx context.Context) ([]models.ReportRecord, error)
}

// Deps are the pipeline stages.
type Deps struct {
	Validator URLValidator
	Gate      RobotsGate
	Auditor   Auditor
	Renderers []reporter.Renderer
	Artifacts ArtifactWriter
	Store     Store
}

// Options tune a Checker.
type Options struct {
	HonorCrawlDelay bool
	MaxCrawlDelay   time.Duration
	Log             logrus.FieldLogger

	// OnState, when set, is called on every stage transition.
	OnState func(State)

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Checker runs gate, audit, rank, render and persist as one sequential unit.
type Checker struct {
	deps      Deps
	renderers map[models.Format]reporter.Renderer
	opts      Options
	log       logrus.FieldLogger

	run sync.Mutex // held for the duration of Check

	mu    sync.Mutex
	busy  bool
	state State
}

// New creates a Checker.
func New(deps Deps, opts Options) *Checker {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	renderers := make(map[models.Format]reporter.Renderer, len(deps.Renderers))
	for _, r := range deps.Renderers {
		renderers[r.Format()] = r
	}

	return &Checker{
		deps:      deps,
		renderers: renderers,
		opts:      opts,
		log:       opts.Log,
		state:     StateIdle,
	}
}

// State returns the stage the current or last check is in.
func (c *Checker) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a check started with Start is still running.
func (c *Checker) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Checker) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// Check runs one check to completion. It never panics on stage failures;
// every failure is reported in the Outcome.
func (c *Checker) Check(ctx context.Context, req Request) *Outcome {
	c.run.Lock()
	defer c.run.Unlock()

	out := &Outcome{
		Request:   req,
		URL:       strings.TrimSpace(req.URL),
		StartedAt: c.opts.Now(),
	}
	log := c.log.WithField("url", out.URL)

	// ValidatingInput
	c.setState(StateValidatingInput)
	target, err := c.deps.Validator.ValidateURL(ctx, req.URL)
	if err != nil {
		return c.fail(out, log, InputValidation, err)
	}
	out.URL = target
	formats, err := models.ParseFormats(formatNames(req.Formats))
	if err != nil {
		return c.fail(out, log, InputValidation, err)
	}
	if err := validator.ValidateFormats(formats); err != nil {
		return c.fail(out, log, InputValidation, err)
	}

	// CheckingRobots
	c.setState(StateCheckingRobots)
	decision, err := c.deps.Gate.Check(ctx, target)
	if err != nil {
		return c.fail(out, log, RobotsCheckFailed, err)
	}
	out.Robots = decision
	if !decision.Allowed {
		return c.fail(out, log, RobotsDisallowed, errors.New(MsgRobotsDisallowed))
	}
	if err := c.crawlDelay(ctx, log, decision.CrawlDelay); err != nil {
		return c.fail(out, log, RobotsCheckFailed, fmt.Errorf("crawl delay interrupted: %w", err))
	}

	// Auditing
	c.setState(StateAuditing)
	raw, err := c.deps.Auditor.Run(ctx, target)
	if err != nil {
		return c.fail(out, log, AuditFailure, err)
	}
	out.Raw = raw

	// Ranking
	c.setState(StateRanking)
	out.Ranked = ranker.Rank(raw.Violations)
	out.Summary = ranker.Summarize(out.Ranked, raw)
	out.Trend = c.trend(ctx, log, target, out.TotalViolations())

	// Rendering and Persisting, once per format
	out.GeneratedAt = c.opts.Now()
	doc := reporter.NewDocument(target, out.GeneratedAt, raw, out.Ranked)
	for _, format := range formats {
		c.produce(ctx, log, out, doc, format)
	}

	if len(out.Records) == 0 && len(out.FormatErrors) > 0 {
		first := out.FormatErrors[0]
		kind := RenderFailure
		if first.Stage == StagePersist {
			kind = PersistenceFailure
		}
		return c.fail(out, log, kind, fmt.Errorf("%s %s: %s", strings.ToUpper(string(first.Format)), first.Stage, first.Message))
	}

	out.State = StateDone
	c.setState(StateDone)
	log.WithFields(logrus.Fields{
		"violations": out.TotalViolations(),
		"artifacts":  len(out.Artifacts),
		"status":     out.Status(),
	}).Info("Check complete")
	return out
}

// produce renders, writes and records one format. Failures are appended to
// out.FormatErrors and never undo earlier formats.
func (c *Checker) produce(ctx context.Context, log logrus.FieldLogger, out *Outcome, doc reporter.Document, format models.Format) {
	log = log.WithField("format", format)
	formatErr := func(stage string, err error) {
		log.WithError(err).WithField("stage", stage).Error("Report format failed")
		out.FormatErrors = append(out.FormatErrors, reporter.FormatError{
			Format:  format,
			Stage:   stage,
			Message: err.Error(),
		})
	}

	c.setState(StateRendering)
	r, ok := c.renderers[format]
	if !ok {
		formatErr(StageRender, fmt.Errorf("no renderer for %s", format))
		return
	}
	data, err := r.RenderDocument(ctx, doc)
	if err != nil {
		formatErr(StageRender, err)
		return
	}
	path, err := c.deps.Artifacts.Write(out.GeneratedAt, format, data)
	if err != nil {
		formatErr(StageWrite, err)
		return
	}
	out.Artifacts = append(out.Artifacts, models.ReportArtifact{
		URL:         out.URL,
		GeneratedAt: out.GeneratedAt,
		Format:      format,
		Path:        path,
	})
	log.WithField("path", path).Info("Report written")

	c.setState(StatePersisting)
	rec, err := c.deps.Store.Add(ctx, out.URL, out.TotalViolations(), format, path)
	if err != nil {
		formatErr(StagePersist, err)
		return
	}
	out.Records = append(out.Records, rec)
}

// crawlDelay logs the requested delay and waits for it when configured to.
func (c *Checker) crawlDelay(ctx context.Context, log logrus.FieldLogger, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if !c.opts.HonorCrawlDelay {
		log.WithField("crawl_delay", d).Info("robots.txt requests a crawl delay (not honoured)")
		return nil
	}
	if c.opts.MaxCrawlDelay > 0 && d > c.opts.MaxCrawlDelay {
		d = c.opts.MaxCrawlDelay
	}
	log.WithField("crawl_delay", d).Info("Waiting for crawl delay")
	return c.opts.Sleep(ctx, d)
}

// trend compares with the newest earlier record of the same URL. History
// read failures only cost the trend.
func (c *Checker) trend(ctx context.Context, log logrus.FieldLogger, url string, current int) *ranker.Trend {
	records, err := c.deps.Store.LoadAll(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not load history for trend")
		return nil
	}
	return ranker.CalculateTrend(current, ranker.PreviousFor(url, records))
}

func (c *Checker) fail(out *Outcome, log logrus.FieldLogger, kind FailureKind, err error) *Outcome {
	out.Failure = &Failure{Kind: kind, Message: err.Error(), Err: err}
	out.State = StateFailed
	c.setState(StateFailed)

	entry := log.WithField("kind", kind)
	var verr *validator.Error
	if errors.As(err, &verr) && verr.Cause != nil {
		entry = entry.WithError(verr.Cause)
	}
	entry.Warn(out.Failure.Message)
	return out
}

// Task is a check running in the background.
type Task struct {
	done     chan *Outcome
	finished chan struct{}
	out      *Outcome
}

// Done yields the outcome exactly once, then is closed.
func (t *Task) Done() <-chan *Outcome {
	return t.done
}

// Wait blocks until the check finishes and returns its outcome. It may be
// called any number of times, before or after Done has been drained.
func (t *Task) Wait() *Outcome {
	<-t.finished
	return t.out
}

// Start runs a check on its own goroutine. Only one started check may be in
// flight per Checker; a second call returns ErrBusy.
func (c *Checker) Start(ctx context.Context, req Request) (*Task, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	task := &Task{done: make(chan *Outcome, 1), finished: make(chan struct{})}
	go func() {
		out := c.Check(ctx, req)
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
		task.out = out
		close(task.finished)
		task.done <- out
		close(task.done)
	}()
	return task, nil
}

func formatNames(formats []models.Format) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return names
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
