// Package tui provides a terminal user interface for the analysis service.
package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/history"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/storage"
	"github.com/user/pcapview/internal/util"
	"github.com/user/pcapview/internal/view"
)

const (
	layoutInterval = 50 * time.Millisecond
	stepsPerTick   = 20
)

// Service is the part of the analysis service the terminal UI calls.
type Service interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResponse, error)
	History(ctx context.Context, skip, limit int) (*model.HistoryPage, error)
	Record(ctx context.Context, id int64) (*model.AnalysisRecord, error)
}

// App is the main TUI application.
type App struct {
	svc     Service
	config  *util.Config
	journal storage.Recorder
	geo     *graph.GeoAnnotator
}

// NewApp creates a new TUI application. journal and geo may be nil.
func NewApp(svc Service, cfg *util.Config, journal storage.Recorder, geo *graph.GeoAnnotator) *App {
	return &App{
		svc:     svc,
		config:  cfg,
		journal: journal,
		geo:     geo,
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	m := newModel(a.svc, a.config, a.journal, a.geo)
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type screen int

const (
	screenUpload screen = iota
	screenHistory
	screenDetail
)

// appModel is the main bubbletea model. The views are pointers mutated only
// from Update; commands never touch them.
type appModel struct {
	svc     Service
	config  *util.Config
	journal storage.Recorder
	keys    keyMap
	help    help.Model

	screen screen
	width  int
	height int

	input        textinput.Model
	spinner      spinner.Model
	upload       *view.UploadView
	uploadResult *view.ResultView
	cancelUpload context.CancelFunc

	history *view.HistoryView
	row     int

	detail *view.DetailView

	// node is the selected host on the visible graph.
	node int
	// layoutGen tags layout ticks so ticks for a replaced graph are dropped.
	layoutGen int
}

func newModel(svc Service, cfg *util.Config, journal storage.Recorder, geo *graph.GeoAnnotator) appModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(Primary)

	ti := textinput.New()
	ti.Placeholder = "path to .pcap or .pcapng file"
	ti.CharLimit = 4096
	ti.Width = 60
	ti.Focus()

	if journal == nil {
		journal = storage.NopRecorder{}
	}

	return appModel{
		svc:          svc,
		config:       cfg,
		journal:      journal,
		keys:         defaultKeyMap(),
		help:         help.New(),
		input:        ti,
		spinner:      s,
		upload:       view.NewUploadView(),
		uploadResult: view.NewResultView(graph.NewForceLayout(), geo),
		history:      view.NewHistoryView(cfg.PageSize, cfg.MaxPageButtons),
		detail:       view.NewDetailView(graph.NewForceLayout(), geo),
	}
}

// Init initializes the model.
func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Messages
type uploadDoneMsg struct {
	ticket view.Ticket
	resp   *model.UploadResponse
	err    error
	record func(*model.AnalysisResult, string)
}

type historyMsg struct {
	ticket view.Ticket
	page   *model.HistoryPage
	err    error
}

type detailMsg struct {
	ticket view.Ticket
	rec    *model.AnalysisRecord
	err    error
}

type layoutTickMsg struct {
	gen int
}

// Update handles messages.
func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-12)
		m.help.Width = msg.Width

	case uploadDoneMsg:
		return m.uploadDone(msg)

	case historyMsg:
		if !m.history.Receive(msg.ticket, msg.page, msg.err) {
			return m, nil
		}
		snap := m.history.Snapshot()
		if snap.OutOfRange {
			if req, ok := m.history.GoTo(snap.Window.TotalPages); ok {
				return m, m.fetchHistory(req)
			}
		}
		m.row = min(m.row, max(0, len(snap.Rows)-1))

	case detailMsg:
		if !m.detail.Receive(msg.ticket, msg.rec, msg.err) {
			return m, nil
		}
		if rv := m.detail.Snapshot().Result; rv != nil {
			return m, m.startLayout(rv)
		}

	case layoutTickMsg:
		if msg.gen != m.layoutGen {
			return m, nil
		}
		sim := m.simulation()
		if sim == nil {
			return m, nil
		}
		for i := 0; i < stepsPerTick && sim.Step(); i++ {
		}
		if sim.Stable() || sim.Destroyed() {
			return m, nil
		}
		return m, layoutTick(msg.gen)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.UploadTab):
		return m.showUpload()
	case key.Matches(msg, m.keys.History):
		return m.showHistory()
	case key.Matches(msg, m.keys.NextNode):
		m.moveNode(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevNode):
		m.moveNode(-1)
		return m, nil
	}

	switch m.screen {
	case screenUpload:
		return m.uploadKey(msg)
	case screenHistory:
		return m.historyKey(msg)
	case screenDetail:
		return m.detailKey(msg)
	}
	return m, nil
}

func (m appModel) uploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Cancel):
		if m.upload.Busy() {
			if m.cancelUpload != nil {
				m.cancelUpload()
				m.cancelUpload = nil
			}
			m.upload.Reset()
			m.upload.SelectFile(m.input.Value())
			return m, nil
		}
		m.input.Reset()
		m.upload.SelectFile("")
		m.uploadResult.Clear()
		m.layoutGen++
		return m, nil
	}

	if m.upload.Busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) submit() (tea.Model, tea.Cmd) {
	if !m.upload.SelectFile(m.input.Value()) {
		return m, nil
	}
	m.uploadResult.Clear()
	m.layoutGen++
	m.node = 0

	ticket, path, ok := m.upload.Submit()
	if !ok {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelUpload = cancel
	return m, tea.Batch(uploadCmd(ctx, m.svc, m.journal, ticket, path), m.spinner.Tick)
}

func (m appModel) uploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	accepted := m.upload.Complete(msg.ticket, msg.resp, msg.err)
	if accepted && m.cancelUpload != nil {
		m.cancelUpload()
		m.cancelUpload = nil
	}

	res, ok := m.upload.Result()
	if msg.record != nil {
		switch {
		case !accepted:
			msg.record(nil, "cancelled")
		case ok:
			msg.record(&res, m.upload.Message())
		default:
			msg.record(nil, m.upload.Message())
		}
	}
	if !accepted || !ok {
		return m, nil
	}

	if err := m.uploadResult.Show(res); err != nil {
		util.Warn("Rendering graph failed: %v", err)
		return m, nil
	}
	return m, m.startLayout(m.uploadResult)
}

func (m appModel) historyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.history.Snapshot()

	var (
		req view.FetchRequest
		ok  bool
	)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		if m.row < len(snap.Rows)-1 {
			m.row++
		}
	case key.Matches(msg, m.keys.PrevPage):
		req, ok = m.history.Prev()
	case key.Matches(msg, m.keys.NextPage):
		req, ok = m.history.Next()
	case key.Matches(msg, m.keys.FirstPage):
		req, ok = m.history.GoTo(1)
	case key.Matches(msg, m.keys.LastPage):
		req, ok = m.history.GoTo(snap.Window.TotalPages)
	case key.Matches(msg, m.keys.Refresh):
		req, ok = m.history.Request(), true
	case key.Matches(msg, m.keys.SortID):
		m.history.SortBy(history.ColumnID)
	case key.Matches(msg, m.keys.SortName):
		m.history.SortBy(history.ColumnFilename)
	case key.Matches(msg, m.keys.SortTime):
		m.history.SortBy(history.ColumnTimestamp)
	case key.Matches(msg, m.keys.SortState):
		m.history.SortBy(history.ColumnStatus)
	case key.Matches(msg, m.keys.Open):
		if m.row < len(snap.Rows) {
			return m.openDetail(snap.Rows[m.row].ID)
		}
	}

	if !ok {
		return m, nil
	}
	m.row = 0
	return m, tea.Batch(m.fetchHistory(req), m.spinner.Tick)
}

func (m appModel) detailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.detail.Close()
		m.layoutGen++
		m.screen = screenHistory
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m.openDetail(m.detail.ID())
	}
	return m, nil
}

func (m appModel) showUpload() (tea.Model, tea.Cmd) {
	if m.screen == screenDetail {
		m.detail.Close()
	}
	m.screen = screenUpload
	m.node = 0
	m.input.Focus()
	return m, tea.Batch(textinput.Blink, m.startLayout(m.uploadResult))
}

// showHistory enters the history list and fetches the current page.
func (m appModel) showHistory() (tea.Model, tea.Cmd) {
	if m.screen == screenDetail {
		m.detail.Close()
	}
	m.screen = screenHistory
	m.layoutGen++
	m.input.Blur()
	return m, tea.Batch(m.fetchHistory(m.history.Request()), m.spinner.Tick)
}

func (m appModel) openDetail(id int64) (tea.Model, tea.Cmd) {
	m.screen = screenDetail
	m.node = 0
	m.layoutGen++
	ticket := m.detail.Load(id)
	return m, tea.Batch(fetchRecord(m.svc, ticket, id), m.spinner.Tick)
}

// activeResult returns the result shown on the current screen, if any.
func (m appModel) activeResult() *view.ResultView {
	switch m.screen {
	case screenUpload:
		return m.uploadResult
	case screenDetail:
		return m.detail.Snapshot().Result
	}
	return nil
}

func (m appModel) simulation() *graph.Simulation {
	rv := m.activeResult()
	if rv == nil {
		return nil
	}
	sim, _ := rv.Graph().(*graph.Simulation)
	return sim
}

func (m *appModel) moveNode(delta int) {
	sim := m.simulation()
	if sim == nil || len(sim.Nodes()) == 0 {
		return
	}
	n := len(sim.Nodes())
	m.node = ((m.node+delta)%n + n) % n
}

// startLayout begins animating the graph of rv. Ticks of earlier graphs stop.
func (m *appModel) startLayout(rv *view.ResultView) tea.Cmd {
	m.layoutGen++
	if rv == nil {
		return nil
	}
	if _, ok := rv.Graph().(*graph.Simulation); !ok {
		return nil
	}
	return layoutTick(m.layoutGen)
}

func (m appModel) fetchHistory(req view.FetchRequest) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		page, err := svc.History(context.Background(), req.Skip, req.Limit)
		return historyMsg{ticket: req.Ticket, page: page, err: err}
	}
}

func (m appModel) close() {
	if m.cancelUpload != nil {
		m.cancelUpload()
	}
	m.upload.Reset()
	m.uploadResult.Close()
	m.detail.Close()
}

func layoutTick(gen int) tea.Cmd {
	return tea.Tick(layoutInterval, func(time.Time) tea.Msg {
		return layoutTickMsg{gen: gen}
	})
}

func fetchRecord(svc Service, t view.Ticket, id int64) tea.Cmd {
	return func() tea.Msg {
		rec, err := svc.Record(context.Background(), id)
		return detailMsg{ticket: t, rec: rec, err: err}
	}
}

// uploadCmd streams the file at path to the service. The journal entry is
// opened here and closed from Update once the view has settled the outcome.
func uploadCmd(ctx context.Context, svc Service, journal storage.Recorder, t view.Ticket, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{ticket: t, err: err}
		}
		defer f.Close()

		var size int64
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		name := filepath.Base(path)
		record := storage.Track(journal, name, size)
		resp, err := svc.Upload(ctx, name, f)
		return uploadDoneMsg{ticket: t, resp: resp, err: err, record: record}
	}
}
