package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/validator"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a whole audit when none is configured.
const DefaultTimeout = 2 * time.Minute

// Stages reported by EngineError.
const (
	StageLaunch   = "launch"
	StageInject   = "inject"
	StageEvaluate = "evaluate"
	StageParse    = "parse"
)

// Scan is what a ScanFunc captures from one page load: the raw axe-core
// result JSON and the serialised DOM.
type Scan struct {
	Result []byte
	DOM    string
}

// ScanFunc loads url in a browser and runs the rule engine against it.
// Production uses NewChromeScanner; tests inject canned results.
type ScanFunc func(ctx context.Context, url string) (*Scan, error)

// NavigationError means the page could not be loaded (DNS, TLS, timeout).
type NavigationError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("navigation to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// EngineError covers browser launch and rule engine failures.
type EngineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("audit %s failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Options configures a Runner.
type Options struct {
	Timeout           time.Duration
	NavigationRetries int
	// DumpPath receives the raw result before it is returned. Empty disables.
	DumpPath string
	Log      logrus.FieldLogger
}

// Runner audits a single URL per call.
type Runner struct {
	scan      ScanFunc
	opts      Options
	validator *validator.Validator
	log       logrus.FieldLogger
}

// New creates a Runner with the given scan function.
func New(scan ScanFunc, opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.NavigationRetries < 0 {
		opts.NavigationRetries = 0
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		scan:      scan,
		opts:      opts,
		validator: validator.New(nil),
		log:       log,
	}
}

// Run audits url and returns the three result buckets. Only navigation
// failures are retried, up to NavigationRetries extra attempts.
func (r *Runner) Run(ctx context.Context, url string) (*models.RawAuditResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	log := r.log.WithField("url", url)

	var (
		scan *Scan
		err  error
	)
	attempts := r.opts.NavigationRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		scan, err = r.scan(ctx, url)
		if err == nil {
			log.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("Scan finished")
			break
		}

		var nav *NavigationError
		if !errors.As(err, &nav) || attempt == attempts || ctx.Err() != nil {
			if nav != nil {
				nav.Attempts = attempt
			}
			return nil, err
		}
		log.WithError(err).WithField("attempt", attempt).Warn("Navigation failed, retrying")
	}

	if scan == nil || len(scan.Result) == 0 {
		return nil, &EngineError{Stage: StageEvaluate, URL: url, Err: fmt.Errorf("empty result")}
	}

	if err := r.validator.ValidateAuditResult(scan.Result); err != nil {
		return nil, &EngineError{Stage: StageParse, URL: url, Err: err}
	}

	if r.opts.DumpPath != "" {
		if err := WriteDump(r.opts.DumpPath, scan.Result); err != nil {
			// Diagnostic only
			log.WithError(err).Warn("Could not write raw result dump")
		} else {
			log.WithField("path", r.opts.DumpPath).Debug("Raw result written")
		}
	}

	result, err := Decode(url, scan.Result)
	if err != nil {
		return nil, &EngineError{Stage: StageParse, URL: url, Err: err}
	}
	result.PageTitle, result.PageLang = pageMetadata(scan.DOM)

	log.WithFields(logrus.Fields{
		"violations": len(result.Violations),
		"passes":     len(result.Passes),
		"incomplete": len(result.Incomplete),
		"engine":     result.TestEngine.Version,
	}).Info("Audit complete")

	return result, nil
}

// Decode builds a RawAuditResult from axe-core JSON. Only the buckets the
// report uses are unmarshalled; metadata is read by path.
func Decode(url string, data []byte) (*models.RawAuditResult, error) {
	root := gjson.ParseBytes(data)

	result := &models.RawAuditResult{
		URL: url,
		TestEngine: models.TestEngine{
			Name:    root.Get("testEngine.name").String(),
			Version: root.Get("testEngine.version").String(),
		},
	}

	if ts := root.Get("timestamp"); ts.Exists() {
		if parsed, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
			result.Timestamp = parsed
		}
	}

	buckets := []struct {
		key string
		dst *[]models.RuleResult
	}{
		{"violations", &result.Violations},
		{"passes", &result.Passes},
		{"incomplete", &result.Incomplete},
		{"inapplicable", &result.Inapplicable},
	}
	for _, b := range buckets {
		field := root.Get(b.key)
		if !field.Exists() {
			*b.dst = []models.RuleResult{}
			continue
		}
		if err := json.Unmarshal([]byte(field.Raw), b.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", b.key, err)
		}
		if *b.dst == nil {
			*b.dst = []models.RuleResult{}
		}
	}

	return result, nil
}

// WriteDump writes the raw result with 2-space indentation.
func WriteDump(path string, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("indent result: %w", err)
	}
	buf.WriteByte('\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dump directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}

// pageMetadata extracts the document title and language from serialised HTML.
func pageMetadata(dom string) (title, lang string) {
	if dom == "" {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(dom))
	if err != nil {
		return "", ""
	}
	title = strings.Join(strings.Fields(doc.Find("head title").First().Text()), " ")
	lang = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	return title, lang
}
