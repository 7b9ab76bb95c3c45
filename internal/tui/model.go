package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/ppiankov/a11yspectre/internal/checker"
	"github.com/ppiankov/a11yspectre/internal/models"
	"github.com/ppiankov/a11yspectre/internal/storage"
	"github.com/ppiankov/a11yspectre/internal/validator"
)

// MsgFileNotFound is shown when a history entry's artifact is gone.
const MsgFileNotFound = "File not found"

// focus is which panel receives keys.
type focus int

const (
	focusForm focus = iota
	focusHistory
)

// mode represents the current history interaction mode.
type mode int

const (
	modeNormal mode = iota
	modeSearch
)

const (
	defaultTableHeight = 10
	formHeight         = 4
)

// Starter launches background checks.
type Starter interface {
	Start(ctx context.Context, req checker.Request) (*checker.Task, error)
}

// HistoryLoader is the single read accessor for past reports.
type HistoryLoader interface {
	LoadAll(ctx context.Context) ([]models.ReportRecord, error)
}

// Deps wires the model to the rest of the application.
type Deps struct {
	Checker Starter
	History HistoryLoader

	// Open shows a file in the default viewer. Defaults to browser.OpenFile.
	Open func(path string) error
	// Exists reports whether an artifact is still on disk. Defaults to storage.Exists.
	Exists func(path string) bool

	// Initial form state
	URL     string
	Formats []models.Format
}

// checkDoneMsg carries a finished check back to the Update loop.
type checkDoneMsg struct {
	outcome *checker.Outcome
}

// historyMsg carries a fresh history snapshot.
type historyMsg struct {
	records []models.ReportRecord
	err     error
}

// Model is the top-level Bubble Tea model for the interactive checker.
type Model struct {
	ctx  context.Context
	deps Deps

	// History snapshot; the store stays the source of truth.
	allRecords []models.ReportRecord
	filtered   []models.ReportRecord

	// UI state
	urlInput    textinput.Model
	searchInput textinput.Model
	spinner     spinner.Model
	table       table.Model
	formats     formatToggles
	focus       focus
	mode        mode
	filters     filterState
	sortBy      sortField
	running     bool
	last        *checker.Outcome
	width       int
	height      int
	statusMsg   string
	statusErr   bool
}

// New creates the interactive model.
func New(ctx context.Context, deps Deps) Model {
	if deps.Open == nil {
		deps.Open = browser.OpenFile
	}
	if deps.Exists == nil {
		deps.Exists = storage.Exists
	}

	ui := textinput.New()
	ui.Placeholder = "Enter URL..."
	ui.CharLimit = 2048
	ui.Width = 60
	ui.SetValue(deps.URL)
	ui.Focus()

	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 64

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	var toggles formatToggles
	for _, f := range deps.Formats {
		switch f {
		case models.FormatHTML:
			toggles.HTML = true
		case models.FormatPDF:
			toggles.PDF = true
		}
	}

	return Model{
		ctx:         ctx,
		deps:        deps,
		urlInput:    ui,
		searchInput: si,
		spinner:     sp,
		table:       newTable(nil, defaultTableHeight),
		formats:     toggles,
		focus:       focusForm,
		mode:        modeNormal,
		sortBy:      sortByDate,
		width:       80,
		height:      24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistory())
}

// loadHistory reads the full history off the Update loop.
func (m Model) loadHistory() tea.Cmd {
	ctx, history := m.ctx, m.deps.History
	return func() tea.Msg {
		records, err := history.LoadAll(ctx)
		return historyMsg{records: records, err: err}
	}
}

// waitForCheck blocks on the task in a command goroutine.
func waitForCheck(task *checker.Task) tea.Cmd {
	return func() tea.Msg {
		return checkDoneMsg{outcome: <-task.Done()}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		tableH := msg.Height - headerHeight - formHeight - detailHeight - 4
		if tableH < 3 {
			tableH = 3
		}
		m.table.SetHeight(tableH)
		return m, nil

	case checkDoneMsg:
		m.running = false
		m.last = msg.outcome
		m.setStatus(msg.outcome.StatusLine(), msg.outcome.Failure != nil || len(msg.outcome.FormatErrors) > 0)
		// Refresh after every run, success or failure.
		return m, m.loadHistory()

	case historyMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Could not load history: %v", msg.err), true)
			return m, nil
		}
		m.allRecords = msg.records
		m.rebuildTable()
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.focus == focusForm {
		return m.handleFormKey(msg)
	}
	if m.mode == modeSearch {
		return m.handleSearchKey(msg)
	}
	return m.handleHistoryKey(msg)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.SwitchFocus):
		m.setFocus(focusHistory)
		return m, nil
	case key.Matches(msg, keys.ToggleHTML):
		m.formats.HTML = !m.formats.HTML
		return m, nil
	case key.Matches(msg, keys.TogglePDF):
		m.formats.PDF = !m.formats.PDF
		return m, nil
	case key.Matches(msg, keys.Run):
		return m.startCheck()
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.SwitchFocus):
		m.setFocus(focusForm)
		return m, textinput.Blink
	case key.Matches(msg, keys.Open):
		m.openSelected()
		return m, nil
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.FilterFormat):
		m.filters.Format = nextFormat(m.filters.Format)
		m.rebuildTable()
		if m.filters.Format != "" {
			m.setStatus(fmt.Sprintf("Filter: %s", strings.ToUpper(string(m.filters.Format))), false)
		} else {
			m.setStatus("", false)
		}
		return m, nil
	case key.Matches(msg, keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortField(sortFieldCount)
		m.rebuildTable()
		m.setStatus(fmt.Sprintf("Sort: %s", sortFieldName(m.sortBy)), false)
		return m, nil
	case key.Matches(msg, keys.Refresh):
		return m, m.loadHistory()
	case key.Matches(msg, keys.ClearFilter):
		m.filters = filterState{}
		m.setStatus("", false)
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filters.SearchText = m.searchInput.Value()
		m.mode = modeNormal
		m.searchInput.Blur()
		m.rebuildTable()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// startCheck launches a check unless one is already running.
func (m Model) startCheck() (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}

	formats := m.formats.Selected()
	if len(formats) == 0 {
		m.setStatus(validator.MsgNoOutput, true)
		return m, nil
	}

	task, err := m.deps.Checker.Start(m.ctx, checker.Request{
		URL:     m.urlInput.Value(),
		Formats: formats,
	})
	if err != nil {
		if errors.Is(err, checker.ErrBusy) {
			m.setStatus("A check is already running", true)
		} else {
			m.setStatus("Error: "+err.Error(), true)
		}
		return m, nil
	}

	m.running = true
	m.setStatus("", false)
	return m, tea.Batch(m.spinner.Tick, waitForCheck(task))
}

// openSelected opens the selected artifact. A missing file only sets the
// status line.
func (m *Model) openSelected() {
	rec := m.selectedRecord()
	if rec == nil {
		return
	}
	if !m.deps.Exists(rec.FilePath) {
		m.setStatus(MsgFileNotFound, true)
		return
	}
	if err := m.deps.Open(rec.FilePath); err != nil {
		m.setStatus(fmt.Sprintf("Could not open %s: %v", rec.FilePath, err), true)
		return
	}
	m.setStatus("Opened "+rec.FilePath, false)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusForm {
		m.urlInput.Focus()
		m.table.Blur()
	} else {
		m.urlInput.Blur()
		m.table.Focus()
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

func (m *Model) rebuildTable() {
	filtered := applyFilters(m.allRecords, m.filters)
	sortRecords(filtered, m.sortBy)
	m.filtered = filtered
	m.table.SetRows(buildRows(filtered))
}

func (m *Model) selectedRecord() *models.ReportRecord {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.filtered) {
		return nil
	}
	return &m.filtered[cursor]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	// Header
	var sparkline []int
	if m.last != nil {
		sparkline = violationSeries(m.last.URL, m.allRecords)
	}
	b.WriteString(renderHeader(m.last, sparkline, m.width))
	b.WriteString("\n")

	// Form
	b.WriteString(m.renderForm())
	b.WriteString("\n")

	// Search bar overlay
	if m.mode == modeSearch {
		b.WriteString(styleSearchPrompt.Render("/ "))
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	// History
	b.WriteString(m.table.View())
	b.WriteString("\n")

	// Detail panel
	rec := m.selectedRecord()
	exists := rec != nil && m.deps.Exists(rec.FilePath)
	b.WriteString(renderDetail(rec, exists, m.width))
	b.WriteString("\n")

	// Footer
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderFooter() string {
	var left string
	if m.focus == focusForm {
		left = "enter:generate  ctrl+t:html  ctrl+p:pdf  tab:history  ctrl+c:quit"
	} else {
		left = "enter:open  /:search  f:format  s:sort  r:refresh  tab:form  q:quit"
	}
	right := fmt.Sprintf("%d/%d reports", len(m.filtered), len(m.allRecords))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styleFooter.Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the Bubble Tea program. Called from the ui command.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
