package view

import (
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/metrics"
	"github.com/user/pcapview/internal/model"
)

type countingInstance struct{ destroyed *int }

func (c countingInstance) Destroy() { *c.destroyed++ }

func countingRenderer(built, destroyed *int) graph.Renderer {
	return graph.RendererFunc(func(graph.Data) (graph.Instance, error) {
		*built++
		return countingInstance{destroyed: destroyed}, nil
	})
}

func TestEndToEndUploadResult(t *testing.T) {
	up := NewUploadView()
	up.SelectFile("cap1.pcap")
	ticket, _, _ := up.Submit()
	require.True(t, up.Complete(ticket, &model.UploadResponse{
		Filename: "cap1.pcap",
		Data: model.AnalysisResult{
			Nodes:  []model.GraphNode{{ID: "10.0.0.1", Group: "internal"}},
			Edges:  []model.GraphEdge{},
			Alerts: []model.Alert{},
		},
	}, nil))
	assert.Contains(t, up.Message(), "cap1.pcap")

	var built, destroyed int
	rv := NewResultView(countingRenderer(&built, &destroyed), nil)
	res, _ := up.Result()
	require.NoError(t, rv.Show(res))

	data := rv.GraphData()
	require.Len(t, data.Nodes, 1)
	assert.Equal(t, "<b>IP: 10.0.0.1</b>", data.Nodes[0].Tooltip)
	assert.Equal(t, MsgNoAlerts, rv.AlertsPlaceholder())
	assert.Empty(t, rv.GraphPlaceholder())

	rv.Close()
	assert.Equal(t, 1, built)
	assert.Equal(t, 1, destroyed)
}

func TestResultViewEmptyGraph(t *testing.T) {
	var built, destroyed int
	rv := NewResultView(countingRenderer(&built, &destroyed), nil)
	require.NoError(t, rv.Show(model.AnalysisResult{}))
	assert.Equal(t, MsgNoGraph, rv.GraphPlaceholder())
	assert.Equal(t, 0, built)
}

func TestAlertRows(t *testing.T) {
	rows := AlertRows([]model.Alert{{
		SrcIP: "10.0.0.5", SrcPort: 51000, DestIP: "203.0.113.7", DestPort: 443,
		Proto: "TCP", Severity: "high", Signature: "ET POLICY Suspicious TLS",
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, "10.0.0.5:51000", rows[0].Source)
	assert.Equal(t, "203.0.113.7:443", rows[0].Destination)
	assert.Equal(t, "severity-high", rows[0].Class)
	assert.Equal(t, "-", rows[0].Timestamp)
}

func successRecord() *model.AnalysisRecord {
	return &model.AnalysisRecord{
		ID: 5, Filename: "lab.pcap", Status: model.StatusSuccess,
		Timestamp: model.ParseTimestamp("2024-06-01T08:00:00Z"),
		AnalysisData: &model.AnalysisResult{
			Nodes: []model.GraphNode{{ID: "10.0.0.1"}, {ID: "8.8.8.8", Group: model.GroupExternal}},
			Edges: []model.GraphEdge{{From: "10.0.0.1", To: "8.8.8.8"}},
		},
	}
}

func TestDetailSuccess(t *testing.T) {
	var built, destroyed int
	v := NewDetailView(countingRenderer(&built, &destroyed), nil)
	ticket := v.Load(5)
	assert.Equal(t, MsgDetailLoading, v.Snapshot().Message)

	require.True(t, v.Receive(ticket, successRecord(), nil))
	snap := v.Snapshot()
	assert.Equal(t, "Analysis Details for lab.pcap (ID: 5)", snap.Title)
	assert.True(t, snap.HasAnalysis)
	require.NotNil(t, snap.Result)
	assert.Len(t, snap.Result.GraphData().Nodes, 2)
	assert.Equal(t, 1, built)

	v.Close()
	assert.Equal(t, 1, destroyed)
}

func TestDetailWithoutAnalysisData(t *testing.T) {
	v := NewDetailView(graph.VisRenderer{}, nil)
	ticket := v.Load(6)
	v.Receive(ticket, &model.AnalysisRecord{ID: 6, Filename: "bad.pcap", Status: model.StatusFailure, ErrorMessage: "tshark exited 2"}, nil)

	snap := v.Snapshot()
	assert.False(t, snap.HasAnalysis)
	assert.Equal(t, "tshark exited 2", snap.Error)
	assert.Equal(t, "No analysis data available for this record (status: failure).", snap.NoDataText)
}

func TestDetailNotFound(t *testing.T) {
	v := NewDetailView(graph.VisRenderer{}, nil)
	ticket := v.Load(404)
	v.Receive(ticket, nil, &client.ServiceError{StatusCode: http.StatusNotFound})
	snap := v.Snapshot()
	assert.True(t, snap.NotFound)
	assert.Equal(t, "No record found for ID: 404", snap.Message)
}

func TestDetailTransportFailure(t *testing.T) {
	v := NewDetailView(graph.VisRenderer{}, nil)
	ticket := v.Load(1)
	v.Receive(ticket, nil, &client.TransportError{Op: "GET /api/history/1", Err: errors.New("refused")})
	assert.Equal(t, MsgDetailFailed, v.Snapshot().Message)
}

func TestDetailNavigationDiscardsStale(t *testing.T) {
	before := testutil.ToFloat64(metrics.StaleResponsesTotal.WithLabelValues("detail"))
	var built, destroyed int
	v := NewDetailView(countingRenderer(&built, &destroyed), nil)

	first := v.Load(1)
	second := v.Load(5)
	assert.False(t, v.Receive(first, &model.AnalysisRecord{ID: 1, Status: model.StatusPending}, nil))
	assert.True(t, v.Receive(second, successRecord(), nil))
	assert.Equal(t, int64(5), v.Snapshot().Record.ID)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StaleResponsesTotal.WithLabelValues("detail")))

	// reloading tears down the previous graph first
	third := v.Load(5)
	assert.Equal(t, 1, destroyed)
	v.Receive(third, successRecord(), nil)
	assert.Equal(t, 2, built)
	v.Close()
	assert.Equal(t, 2, destroyed)
}
