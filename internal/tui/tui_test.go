package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppiankov/a11yspectre/internal/checker"
	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/reporter"
	"github.com/ppiankov/a11yspectre/internal/robots"
	"github.com/ppiankov/a11yspectre/internal/validator"
)

func testRecords() []models.ReportRecord {
	return []models.ReportRecord{
		{ID: 4, URL: "https://b.example", Date: "2024-05-02 09:00:00", TotalViolations: 1, Format: models.FormatHTML, FilePath: "reports/report_20240502_090000.html"},
		{ID: 3, URL: "https://a.example", Date: "2024-05-01 10:30:00", TotalViolations: 7, Format: models.FormatPDF, FilePath: "reports/report_20240501_103000.pdf"},
		{ID: 2, URL: "https://a.example", Date: "2024-05-01 10:30:00", TotalViolations: 7, Format: models.FormatHTML, FilePath: "reports/report_20240501_103000.html"},
		{ID: 1, URL: "https://a.example", Date: "2024-04-30 08:00:00", TotalViolations: 3, Format: models.FormatHTML, FilePath: "reports/report_20240430_080000.html"},
	}
}

// --- fakes wiring a real Checker ---

type passValidator struct{}

func (passValidator) ValidateURL(_ context.Context, raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if err := validator.CheckFormat(target); err != nil {
		return "", err
	}
	return target, nil
}

type allowGate struct{}

func (allowGate) Check(context.Context, string) (robots.Decision, error) {
	return robots.Decision{Allowed: true}, nil
}

type fixedAuditor struct{}

func (fixedAuditor) Run(_ context.Context, url string) (*models.RawAuditResult, error) {
	return &models.RawAuditResult{
		URL: url,
		Violations: []models.RuleResult{
			{ID: "image-alt", Impact: "critical", Nodes: make([]models.NodeResult, 2)},
		},
	}, nil
}

type stubRenderer struct{}

func (stubRenderer) Format() models.Format { return models.FormatHTML }

func (stubRenderer) RenderDocument(context.Context, reporter.Document) ([]byte, error) {
	return []byte("<html></html>"), nil
}

type memArtifacts struct{}

func (memArtifacts) Write(_ time.Time, format models.Format, _ []byte) (string, error) {
	return "reports/report_mem" + format.Extension(), nil
}

// memStore is both the checker's store and the model's history.
type memStore struct {
	mu      sync.Mutex
	records []models.ReportRecord
	err     error
}

func (s *memStore) Add(_ context.Context, url string, total int, format models.Format, path string) (models.ReportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := models.ReportRecord{ID: int64(len(s.records) + 1), URL: url, Date: "2024-05-01 10:30:00", TotalViolations: total, Format: format, FilePath: path}
	s.records = append([]models.ReportRecord{rec}, s.records...)
	return rec, nil
}

func (s *memStore) LoadAll(context.Context) ([]models.ReportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.ReportRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// countingStarter records Start calls.
type countingStarter struct {
	inner *checker.Checker
	calls int
}

func (c *countingStarter) Start(ctx context.Context, req checker.Request) (*checker.Task, error) {
	c.calls++
	return c.inner.Start(ctx, req)
}

type harness struct {
	model   Model
	starter *countingStarter
	store   *memStore
	opened  []string
	exists  map[string]bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{store: &memStore{}, exists: map[string]bool{}}
	c := checker.New(checker.Deps{
		Validator: passValidator{},
		Gate:      allowGate{},
		Auditor:   fixedAuditor{},
		Renderers: []reporter.Renderer{stubRenderer{}},
		Artifacts: memArtifacts{},
		Store:     h.store,
	}, checker.Options{})
	h.starter = &countingStarter{inner: c}
	h.model = New(context.Background(), Deps{
		Checker: h.starter,
		History: h.store,
		Open: func(path string) error {
			h.opened = append(h.opened, path)
			return nil
		},
		Exists: func(path string) bool { return h.exists[path] },
	})
	return h
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and flattens batches, returning every message.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func withHistory(t *testing.T, m Model, records []models.ReportRecord) Model {
	t.Helper()
	m, _ = update(t, m, historyMsg{records: records})
	return m
}

// --- Filter and sort tests ---

func TestApplyFiltersNoFilter(t *testing.T) {
	records := testRecords()
	if got := applyFilters(records, filterState{}); len(got) != len(records) {
		t.Errorf("expected %d records, got %d", len(records), len(got))
	}
}

func TestApplyFiltersFormat(t *testing.T) {
	got := applyFilters(testRecords(), filterState{Format: models.FormatPDF})
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("expected only the PDF record, got %+v", got)
	}
}

func TestApplyFiltersSearchCaseInsensitive(t *testing.T) {
	got := applyFilters(testRecords(), filterState{SearchText: "B.EXAMPLE"})
	if len(got) != 1 || got[0].ID != 4 {
		t.Errorf("expected b.example record, got %+v", got)
	}
}

func TestApplyFiltersCombined(t *testing.T) {
	got := applyFilters(testRecords(), filterState{Format: models.FormatHTML, SearchText: "a.example"})
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		field   sortField
		firstID int64
	}{
		{sortByDate, 4},
		{sortByViolations, 3},
		{sortByURL, 3},
	}
	for _, tt := range tests {
		records := testRecords()
		sortRecords(records, tt.field)
		if records[0].ID != tt.firstID {
			t.Errorf("sort %s: first id = %d, want %d", sortFieldName(tt.field), records[0].ID, tt.firstID)
		}
	}
}

func TestNextFormat(t *testing.T) {
	if nextFormat("") != models.FormatHTML || nextFormat(models.FormatHTML) != models.FormatPDF || nextFormat(models.FormatPDF) != "" {
		t.Error("unexpected format filter cycle")
	}
}

func TestBuildRows(t *testing.T) {
	rows := buildRows(testRecords())
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[1][0] != "3" || rows[1][2] != "PDF" || rows[1][3] != "7" {
		t.Errorf("unexpected row: %v", rows[1])
	}
	if len(buildRows(nil)) != 0 {
		t.Error("expected no rows for empty history")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

// --- Header and detail tests ---

func TestViolationSeries(t *testing.T) {
	got := violationSeries("https://a.example", testRecords())
	if len(got) != 2 || got[0] != 3 || got[1] != 7 {
		t.Errorf("series = %v, want [3 7]", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if renderSparkline(nil) != "" {
		t.Error("expected empty sparkline")
	}
	got := renderSparkline([]int{1, 5, 9})
	if !strings.HasPrefix(got, "▁") || !strings.Contains(got, "[1→9]") {
		t.Errorf("sparkline = %q", got)
	}
}

func TestRenderHeaderNoCheck(t *testing.T) {
	if !strings.Contains(renderHeader(nil, nil, 80), "No check run yet") {
		t.Error("expected placeholder header")
	}
}

func TestRenderHeaderWithOutcome(t *testing.T) {
	h := newHarness(t)
	out := h.starter.inner.Check(context.Background(), checker.Request{URL: "https://a.example", Formats: []models.Format{models.FormatHTML}})
	header := renderHeader(out, []int{3, 1}, 100)
	for _, want := range []string{"Health:", "Violations: 1", "C:1", "[3→1]"} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q:\n%s", want, header)
		}
	}
}

func TestRenderDetail(t *testing.T) {
	if !strings.Contains(renderDetail(nil, false, 80), "No report selected") {
		t.Error("expected empty detail")
	}
	rec := testRecords()[1]
	detail := renderDetail(&rec, false, 100)
	for _, want := range []string{"PDF", "#3", "Violations: 7", "(missing)"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q", want)
		}
	}
	if strings.Contains(renderDetail(&rec, true, 100), "(missing)") {
		t.Error("existing file should not be marked missing")
	}
}

// --- Model tests ---

func TestModelInit(t *testing.T) {
	h := newHarness(t)
	h.store.records = testRecords()

	var loaded bool
	for _, msg := range runCmd(h.model.Init()) {
		if hm, ok := msg.(historyMsg); ok {
			loaded = len(hm.records) == 4
		}
	}
	if !loaded {
		t.Error("Init should load history")
	}
}

func TestModelHistoryError(t *testing.T) {
	h := newHarness(t)
	m, _ := update(t, h.model, historyMsg{err: errors.New("database is locked")})
	if !strings.Contains(m.statusMsg, "database is locked") || !m.statusErr {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestModelWindowResize(t *testing.T) {
	h := newHarness(t)
	m, _ := update(t, h.model, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
}

func TestModelToggles(t *testing.T) {
	h := newHarness(t)
	m, _ := update(t, h.model, tea.KeyMsg{Type: tea.KeyCtrlT})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if !m.formats.HTML || !m.formats.PDF {
		t.Errorf("toggles = %+v", m.formats)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if got := m.formats.Selected(); len(got) != 1 || got[0] != models.FormatPDF {
		t.Errorf("selected = %v", got)
	}
}

func TestModelTypingQDoesNotQuitInForm(t *testing.T) {
	h := newHarness(t)
	m, cmd := update(t, h.model, keyRunes("q"))
	if m.urlInput.Value() != "q" {
		t.Errorf("url = %q, want q", m.urlInput.Value())
	}
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			t.Error("q in the URL field must not quit")
		}
	}
}

func TestModelQuitFromHistory(t *testing.T) {
	h := newHarness(t)
	m, _ := update(t, h.model, tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := update(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelRequiresFormat(t *testing.T) {
	h := newHarness(t)
	h.model.urlInput.SetValue("https://a.example")

	m, cmd := update(t, h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.running {
		t.Error("check must not start without a format")
	}
	if m.statusMsg != validator.MsgNoOutput {
		t.Errorf("status = %q", m.statusMsg)
	}
	if h.starter.calls != 0 {
		t.Error("checker must not be called")
	}
}

func TestModelTriggerDisabledWhileRunning(t *testing.T) {
	h := newHarness(t)
	h.model.formats.HTML = true
	h.model.running = true

	m, cmd := update(t, h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || h.starter.calls != 0 {
		t.Error("trigger must be ignored while a check runs")
	}
	if !strings.Contains(m.View(), "Generating...") {
		t.Error("running view should show the disabled trigger")
	}
}

func TestModelRunCheckAndRefreshHistory(t *testing.T) {
	h := newHarness(t)
	h.model.urlInput.SetValue("https://a.example")
	h.model.formats.HTML = true

	m, cmd := update(t, h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.running || cmd == nil {
		t.Fatal("expected running check")
	}

	var done *checkDoneMsg
	for _, msg := range runCmd(cmd) {
		if d, ok := msg.(checkDoneMsg); ok {
			done = &d
		}
	}
	if done == nil {
		t.Fatal("expected checkDoneMsg")
	}

	m, cmd = update(t, m, *done)
	if m.running {
		t.Error("running should clear when the check finishes")
	}
	if m.statusMsg != "Report(s) generated successfully! 1 violations found." {
		t.Errorf("status = %q", m.statusMsg)
	}

	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected history refresh, got %v", msgs)
	}
	m, _ = update(t, m, msgs[0])
	if len(m.allRecords) != 1 || m.allRecords[0].TotalViolations != 1 {
		t.Errorf("history = %+v", m.allRecords)
	}
	if !strings.Contains(m.View(), "Health:") {
		t.Error("header should summarise the last check")
	}
}

func TestModelFailedCheckStillRefreshes(t *testing.T) {
	h := newHarness(t)
	h.model.urlInput.SetValue("not a url")
	h.model.formats.HTML = true

	m, cmd := update(t, h.model, tea.KeyMsg{Type: tea.KeyEnter})
	var done checkDoneMsg
	for _, msg := range runCmd(cmd) {
		if d, ok := msg.(checkDoneMsg); ok {
			done = d
		}
	}
	m, cmd = update(t, m, done)
	if m.statusMsg != validator.MsgFormat || !m.statusErr {
		t.Errorf("status = %q", m.statusMsg)
	}
	if cmd == nil {
		t.Error("history should refresh after a failed check")
	}
}

func TestModelOpenMissingFile(t *testing.T) {
	h := newHarness(t)
	m := withHistory(t, h.model, testRecords())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	before := len(m.allRecords)
	cursor := m.table.Cursor()

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("no command expected")
	}
	if m.statusMsg != MsgFileNotFound {
		t.Errorf("status = %q, want %q", m.statusMsg, MsgFileNotFound)
	}
	if len(h.opened) != 0 {
		t.Error("opener must not be called")
	}
	if len(m.allRecords) != before || m.table.Cursor() != cursor || m.focus != focusHistory {
		t.Error("missing file must not change any other state")
	}
}

func TestModelOpenExistingFile(t *testing.T) {
	h := newHarness(t)
	records := testRecords()
	h.exists[records[0].FilePath] = true

	m := withHistory(t, h.model, records)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(h.opened) != 1 || h.opened[0] != records[0].FilePath {
		t.Errorf("opened = %v", h.opened)
	}
	if !strings.HasPrefix(m.statusMsg, "Opened ") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestModelFilterAndSortKeys(t *testing.T) {
	h := newHarness(t)
	m := withHistory(t, h.model, testRecords())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m, _ = update(t, m, keyRunes("f"))
	if m.filters.Format != models.FormatHTML || len(m.filtered) != 3 {
		t.Errorf("format filter = %s, %d rows", m.filters.Format, len(m.filtered))
	}

	m, _ = update(t, m, keyRunes("s"))
	if m.sortBy != sortByViolations || m.statusMsg != "Sort: violations" {
		t.Errorf("sort = %d, status %q", m.sortBy, m.statusMsg)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.filters.Format != "" || len(m.filtered) != 4 {
		t.Error("esc should clear filters")
	}
}

func TestModelSearch(t *testing.T) {
	h := newHarness(t)
	m := withHistory(t, h.model, testRecords())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, keyRunes("/"))
	if m.mode != modeSearch {
		t.Fatal("expected search mode")
	}
	m.searchInput.SetValue("b.example")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeNormal || len(m.filtered) != 1 {
		t.Errorf("mode %d, %d rows", m.mode, len(m.filtered))
	}
}

func TestModelView(t *testing.T) {
	h := newHarness(t)
	m := withHistory(t, h.model, testRecords())
	output := m.View()

	for _, want := range []string{"URL:", "[ ] HTML", "[ ] PDF", "Generate Report", "https://b.example", "4/4 reports"} {
		if !strings.Contains(output, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNewInitialFormats(t *testing.T) {
	m := New(context.Background(), Deps{
		History: &memStore{},
		URL:     "https://a.example",
		Formats: []models.Format{models.FormatPDF},
	})
	if m.urlInput.Value() != "https://a.example" || m.formats.HTML || !m.formats.PDF {
		t.Errorf("initial state: url %q formats %+v", m.urlInput.Value(), m.formats)
	}
}
