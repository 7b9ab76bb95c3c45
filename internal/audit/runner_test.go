package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/a11yspectre/internal/logging"
)

const sampleResult = `{"testEngine":{"name":"axe-core","version":"4.10.2"},"timestamp":"2024-06-01T10:15:30.123Z","url":"https://example.com/","violations":[{"id":"image-alt","impact":"critical","help":"Images must have alternate text","helpUrl":"https://dequeuniversity.com/rules/axe/4.10/image-alt","tags":["wcag2a"],"nodes":[{"html":"<img src=\"a.png\">","target":["img"]},{"html":"<img src=\"b.png\">","target":["#hero > img"]}]},{"id":"region","impact":null,"nodes":[{"html":"<div>","target":["div"]}]}],"passes":[{"id":"document-title","impact":null,"nodes":[{}]}],"incomplete":[],"inapplicable":[{"id":"audio-caption","nodes":[]}]}`

const sampleDOM = `<html lang="pt-PT"><head><title>
  Example
  Domain </title></head><body><img src="a.png"></body></html>`

type scanStep struct {
	scan *Scan
	err  error
}

// mockScan returns a ScanFunc that replays steps in order.
func mockScan(steps ...scanStep) (ScanFunc, *int) {
	calls := 0
	return func(ctx context.Context, url string) (*Scan, error) {
		i := calls
		calls++
		if i >= len(steps) {
			return nil, errors.New("unexpected call")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return steps[i].scan, steps[i].err
	}, &calls
}

func ok(result string) scanStep {
	return scanStep{scan: &Scan{Result: []byte(result), DOM: sampleDOM}}
}

func navFail() scanStep {
	return scanStep{err: &NavigationError{URL: "https://example.com", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}}
}

func TestRun_Success(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "axe_results.json")
	scan, calls := mockScan(ok(sampleResult))

	r := New(scan, Options{DumpPath: dump, Log: logging.Discard()})
	res, err := r.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *calls != 1 {
		t.Errorf("expected 1 scan, got %d", *calls)
	}

	if res.URL != "https://example.com" {
		t.Errorf("unexpected url %s", res.URL)
	}
	if res.BrokenRules() != 2 {
		t.Errorf("expected 2 broken rules, got %d", res.BrokenRules())
	}
	if len(res.Passes) != 1 || len(res.Incomplete) != 0 || len(res.Inapplicable) != 1 {
		t.Errorf("unexpected buckets: %d passes, %d incomplete, %d inapplicable",
			len(res.Passes), len(res.Incomplete), len(res.Inapplicable))
	}
	if res.Incomplete == nil {
		t.Error("empty bucket should decode to an empty slice")
	}
	if res.TestEngine.Version != "4.10.2" {
		t.Errorf("unexpected engine version %q", res.TestEngine.Version)
	}
	want := time.Date(2024, 6, 1, 10, 15, 30, 123000000, time.UTC)
	if !res.Timestamp.Equal(want) {
		t.Errorf("unexpected timestamp %s", res.Timestamp)
	}
	if res.PageTitle != "Example Domain" {
		t.Errorf("unexpected title %q", res.PageTitle)
	}
	if res.PageLang != "pt-PT" {
		t.Errorf("unexpected lang %q", res.PageLang)
	}
	if got := res.Violations[1].ImpactOrUnknown(); got != "unknown" {
		t.Errorf("null impact should be unknown, got %s", got)
	}
	if sel := res.Violations[0].Nodes[1].Selectors(); len(sel) != 1 || sel[0] != "#hero > img" {
		t.Errorf("unexpected selectors %v", sel)
	}

	data, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("expected dump file: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"testEngine\": {") {
		t.Errorf("expected 2-space indented dump, got %s", string(data)[:60])
	}
}

func TestRun_NoDump(t *testing.T) {
	scan, _ := mockScan(ok(sampleResult))

	r := New(scan, Options{Log: logging.Discard()})
	if _, err := r.Run(context.Background(), "https://example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat("axe_results.json"); !os.IsNotExist(err) {
		t.Error("expected no dump without DumpPath")
	}
}

func TestRun_DumpFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	scan, _ := mockScan(ok(sampleResult))

	r := New(scan, Options{DumpPath: filepath.Join(blocker, "axe_results.json"), Log: logging.Discard()})
	if _, err := r.Run(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("dump failure must not fail the audit: %v", err)
	}
}

func TestRun_NavigationErrorNoRetryByDefault(t *testing.T) {
	scan, calls := mockScan(navFail(), ok(sampleResult))

	r := New(scan, Options{Log: logging.Discard()})
	_, err := r.Run(context.Background(), "https://example.com")

	var nav *NavigationError
	if !errors.As(err, &nav) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
	if *calls != 1 {
		t.Errorf("expected no retry, got %d calls", *calls)
	}
	if !strings.Contains(err.Error(), "ERR_NAME_NOT_RESOLVED") {
		t.Errorf("expected underlying cause in message, got %q", err.Error())
	}
}

func TestRun_NavigationRetry(t *testing.T) {
	scan, calls := mockScan(navFail(), navFail(), ok(sampleResult))

	r := New(scan, Options{NavigationRetries: 2, Log: logging.Discard()})
	if _, err := r.Run(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if *calls != 3 {
		t.Errorf("expected 3 calls, got %d", *calls)
	}
}

func TestRun_NavigationRetriesExhausted(t *testing.T) {
	scan, calls := mockScan(navFail(), navFail())

	r := New(scan, Options{NavigationRetries: 1, Log: logging.Discard()})
	_, err := r.Run(context.Background(), "https://example.com")

	var nav *NavigationError
	if !errors.As(err, &nav) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
	if nav.Attempts != 2 || *calls != 2 {
		t.Errorf("expected 2 attempts, got %d (calls %d)", nav.Attempts, *calls)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRun_EngineErrorNotRetried(t *testing.T) {
	engineErr := &EngineError{Stage: StageLaunch, URL: "https://example.com", Err: errors.New("chrome not found")}
	scan, calls := mockScan(scanStep{err: engineErr}, ok(sampleResult))

	r := New(scan, Options{NavigationRetries: 3, Log: logging.Discard()})
	_, err := r.Run(context.Background(), "https://example.com")

	var ee *EngineError
	if !errors.As(err, &ee) || ee.Stage != StageLaunch {
		t.Fatalf("expected launch EngineError, got %v", err)
	}
	if *calls != 1 {
		t.Errorf("engine errors must not be retried, got %d calls", *calls)
	}
}

func TestRun_MalformedResult(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{"empty", ""},
		{"not json", "{oops"},
		{"missing buckets", `{"violations":[]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			scan, _ := mockScan(ok(tt.result))
			r := New(scan, Options{Log: logging.Discard()})
			_, err := r.Run(context.Background(), "https://example.com")

			var ee *EngineError
			if !errors.As(err, &ee) {
				t.Fatalf("expected EngineError, got %v", err)
			}
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	scan := func(ctx context.Context, url string) (*Scan, error) {
		<-ctx.Done()
		return nil, &NavigationError{URL: url, Err: ctx.Err()}
	}

	r := New(scan, Options{Timeout: 20 * time.Millisecond, NavigationRetries: 5, Log: logging.Discard()})
	start := time.Now()
	_, err := r.Run(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("retries must stop once the audit deadline passes")
	}
}

func TestDecode_MissingOptionalFields(t *testing.T) {
	res, err := Decode("https://example.com", []byte(`{"violations":[],"passes":[],"incomplete":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Timestamp.IsZero() {
		t.Error("expected zero timestamp when absent")
	}
	if res.Inapplicable == nil {
		t.Error("expected empty inapplicable slice")
	}
}

func TestPageMetadata(t *testing.T) {
	title, lang := pageMetadata("")
	if title != "" || lang != "" {
		t.Error("expected empty metadata for empty DOM")
	}

	title, lang = pageMetadata(`<html><body>no head</body></html>`)
	if title != "" || lang != "" {
		t.Errorf("expected empty metadata, got %q %q", title, lang)
	}
}
