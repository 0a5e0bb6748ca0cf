package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/storage"
	"github.com/user/pcapview/internal/util"
	"github.com/user/pcapview/internal/view"
)

type fakeService struct {
	uploaded  []byte
	skips     []int
	total     int
	recordErr error
}

func (f *fakeService) Upload(_ context.Context, filename string, r io.Reader) (*model.UploadResponse, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = b
	return &model.UploadResponse{
		Filename: filename,
		Data: model.AnalysisResult{
			Nodes: []model.GraphNode{{ID: "10.0.0.1", Group: model.GroupInternal}, {ID: "8.8.8.8", Group: model.GroupExternal}},
			Edges: []model.GraphEdge{{From: "10.0.0.1", To: "8.8.8.8"}},
		},
	}, nil
}

func (f *fakeService) History(_ context.Context, skip, limit int) (*model.HistoryPage, error) {
	f.skips = append(f.skips, skip)
	page := &model.HistoryPage{TotalCount: f.total}
	for i := 0; i < 2; i++ {
		id := int64(skip + i + 1)
		page.Records = append(page.Records, model.AnalysisRecord{
			ID:        id,
			Filename:  fmt.Sprintf("cap%02d.pcap", 10-i),
			Timestamp: model.ParseTimestamp(fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1)),
			Status:    model.StatusSuccess,
		})
	}
	return page, nil
}

func (f *fakeService) Record(_ context.Context, id int64) (*model.AnalysisRecord, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return &model.AnalysisRecord{
		ID: id, Filename: "lab.pcap", Status: model.StatusSuccess,
		AnalysisData: &model.AnalysisResult{
			Nodes: []model.GraphNode{{ID: "10.0.0.1"}, {ID: "10.0.0.2"}},
		},
	}, nil
}

type finish struct {
	outcome string
	message string
	nodes   int
}

type fakeRecorder struct{ finished []finish }

func (r *fakeRecorder) Start(string, int64) (int64, error) { return 1, nil }

func (r *fakeRecorder) Finish(_ int64, outcome, message string, nodes, _ int) error {
	r.finished = append(r.finished, finish{outcome, message, nodes})
	return nil
}

// collect runs cmd and any batched commands, returning their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	for _, msg := range collect(cmd) {
		if m, ok := msg.(T); ok {
			return m
		}
	}
	var zero T
	t.Fatalf("no %T produced", zero)
	return zero
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(appModel), cmd
}

func newTestModel(svc Service, rec storage.Recorder) appModel {
	cfg := util.DefaultConfig()
	return newModel(svc, cfg, rec, nil)
}

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cap1.pcap")
	require.NoError(t, os.WriteFile(path, []byte("\xd4\xc3\xb2\xa1"), 0o644))
	return path
}

func TestSubmitWithoutFile(t *testing.T) {
	m := newTestModel(&fakeService{}, nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, m.upload.Busy())
	assert.Contains(t, m.View(), view.MsgSelectFile)
}

func TestUploadShowsResultAndJournals(t *testing.T) {
	svc := &fakeService{}
	rec := &fakeRecorder{}
	m := newTestModel(svc, rec)
	m.input.SetValue(writeCapture(t))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.upload.Busy())
	assert.Contains(t, m.View(), view.MsgUploading)

	done := find[uploadDoneMsg](t, cmd)
	m, cmd = update(t, m, done)

	assert.Equal(t, []byte("\xd4\xc3\xb2\xa1"), svc.uploaded)
	assert.Contains(t, m.View(), "Analysis complete for cap1.pcap.")
	assert.Contains(t, m.View(), view.MsgNoAlerts)
	require.Len(t, rec.finished, 1)
	assert.Equal(t, storage.OutcomeSuccess, rec.finished[0].outcome)
	assert.Equal(t, 2, rec.finished[0].nodes)

	sim, ok := m.uploadResult.Graph().(*graph.Simulation)
	require.True(t, ok)
	require.NotNil(t, cmd, "layout animation starts")

	m, _ = update(t, m, layoutTickMsg{gen: m.layoutGen})
	assert.Greater(t, sim.Iterations(), 0)

	before := sim.Iterations()
	_, cmd = update(t, m, layoutTickMsg{gen: m.layoutGen - 1})
	assert.Nil(t, cmd)
	assert.Equal(t, before, sim.Iterations(), "stale ticks do not step")
}

func TestUploadMissingFileFails(t *testing.T) {
	m := newTestModel(&fakeService{}, nil)
	m.input.SetValue(filepath.Join(t.TempDir(), "missing.pcap"))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, find[uploadDoneMsg](t, cmd))

	_, failed := m.upload.State().(view.Failed)
	assert.True(t, failed)
	assert.Contains(t, m.upload.Message(), "Error: ")
}

func TestCancelDiscardsLateUpload(t *testing.T) {
	rec := &fakeRecorder{}
	m := newTestModel(&fakeService{}, rec)
	m.input.SetValue(writeCapture(t))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.upload.Busy())

	m, _ = update(t, m, find[uploadDoneMsg](t, cmd))
	_, idle := m.upload.State().(view.Idle)
	assert.True(t, idle)
	assert.Nil(t, m.uploadResult.Graph())
	require.Len(t, rec.finished, 1)
	assert.Equal(t, storage.OutcomeFailure, rec.finished[0].outcome)
}

func TestHistoryPagingAndStaleResponses(t *testing.T) {
	svc := &fakeService{total: 47}
	m := newTestModel(svc, nil)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	require.Equal(t, screenHistory, m.screen)
	assert.Contains(t, m.View(), view.MsgHistoryLoading)

	m, _ = update(t, m, find[historyMsg](t, cmd))
	out := m.View()
	assert.Contains(t, out, "cap10.pcap")
	assert.Contains(t, out, "[1]")

	m, toTwo := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, toThree := update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	second := find[historyMsg](t, toTwo)
	third := find[historyMsg](t, toThree)
	assert.Equal(t, []int{0, 10, 20}, svc.skips)

	m, _ = update(t, m, third)
	m, _ = update(t, m, second)
	snap := m.history.Snapshot()
	assert.Equal(t, 3, snap.Page)
	require.NotEmpty(t, snap.Rows)
	assert.Equal(t, int64(21), snap.Rows[len(snap.Rows)-1].ID)
}

func TestHistorySortKeysDoNotRefetch(t *testing.T) {
	svc := &fakeService{total: 2}
	m := newTestModel(svc, nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	m, _ = update(t, m, find[historyMsg](t, cmd))

	// default: timestamp desc, so the 2nd record (later day) comes first
	assert.Equal(t, "cap09.pcap", m.history.Snapshot().Rows[0].Filename)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	assert.Nil(t, cmd)
	assert.Equal(t, "cap09.pcap", m.history.Snapshot().Rows[0].Filename, "filename asc")
	assert.Contains(t, m.View(), "Filename ▲")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	assert.Equal(t, "cap10.pcap", m.history.Snapshot().Rows[0].Filename, "filename desc")
	assert.Len(t, svc.skips, 1)
}

func TestDetailOpenAndBack(t *testing.T) {
	svc := &fakeService{total: 2}
	m := newTestModel(svc, nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	m, _ = update(t, m, find[historyMsg](t, cmd))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, screenDetail, m.screen)
	assert.Contains(t, m.View(), view.MsgDetailLoading)

	msg := find[detailMsg](t, cmd)
	m, cmd = update(t, m, msg)
	snap := m.detail.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Contains(t, m.View(), fmt.Sprintf("Analysis Details for lab.pcap (ID: %d)", snap.Record.ID))
	assert.NotNil(t, cmd)

	sim := m.simulation()
	require.NotNil(t, sim)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.node)
	assert.Contains(t, m.View(), "IP: 10.0.0.2")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenHistory, m.screen)
	assert.True(t, sim.Destroyed())
}

func TestDetailFailure(t *testing.T) {
	svc := &fakeService{total: 2, recordErr: errors.New("connection refused")}
	m := newTestModel(svc, nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	m, _ = update(t, m, find[historyMsg](t, cmd))

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, find[detailMsg](t, cmd))
	assert.Contains(t, m.View(), view.MsgDetailFailed)
}
