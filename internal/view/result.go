package view

import (
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/model"
)

// Result placeholders.
const (
	MsgNoGraph  = "No network data to display."
	MsgNoAlerts = "No security alerts detected."
)

// AlertRow is one line of the alerts table.
type AlertRow struct {
	Timestamp   string
	Source      string
	Destination string
	Proto       string
	Severity    string
	// Class is the severity style hook, e.g. "severity-high".
	Class     string
	Signature string
	Category  string
}

// AlertRows formats alerts for display in input order.
func AlertRows(alerts []model.Alert) []AlertRow {
	rows := make([]AlertRow, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, AlertRow{
			Timestamp:   a.Timestamp.Display(),
			Source:      a.Source(),
			Destination: a.Destination(),
			Proto:       a.Proto,
			Severity:    string(a.Severity),
			Class:       "severity-" + string(a.Severity),
			Signature:   a.Signature,
			Category:    a.Category,
		})
	}
	return rows
}

// ResultView shows one analysis: an alerts table and a host graph.
// It owns the graph render instance; Close must be called on teardown.
type ResultView struct {
	scope    *graph.Scope
	annotate *graph.GeoAnnotator
	alerts   []AlertRow
	err      error
}

// NewResultView creates a view rendering graphs with r. annotate may be nil.
func NewResultView(r graph.Renderer, annotate *graph.GeoAnnotator) *ResultView {
	return &ResultView{scope: graph.NewScope(r), annotate: annotate}
}

// Show replaces the displayed result. The previous graph instance is
// destroyed before a new one is built; an unchanged result is a no-op.
func (v *ResultView) Show(res model.AnalysisResult) error {
	v.alerts = AlertRows(res.Alerts)
	v.err = v.scope.Update(v.annotate.Annotate(res.Nodes), res.Edges)
	return v.err
}

// Clear drops the displayed result and its graph instance.
func (v *ResultView) Clear() {
	v.scope.Release()
	v.alerts = nil
	v.err = nil
}

// Close releases the graph instance.
func (v *ResultView) Close() {
	v.Clear()
}

// Alerts returns the table rows.
func (v *ResultView) Alerts() []AlertRow {
	return v.alerts
}

// AlertsPlaceholder returns MsgNoAlerts when the table is empty.
func (v *ResultView) AlertsPlaceholder() string {
	if len(v.alerts) == 0 {
		return MsgNoAlerts
	}
	return ""
}

// GraphPlaceholder returns MsgNoGraph when there is nothing to draw.
func (v *ResultView) GraphPlaceholder() string {
	if v.scope.Instance() == nil && v.err == nil {
		return MsgNoGraph
	}
	return ""
}

// GraphError returns the last render failure, if any.
func (v *ResultView) GraphError() error {
	return v.err
}

// Graph returns the live render instance, or nil.
func (v *ResultView) Graph() graph.Instance {
	return v.scope.Instance()
}

// GraphData returns the enriched data behind the live instance.
func (v *ResultView) GraphData() graph.Data {
	return v.scope.Data()
}

// DroppedEdges returns how many dangling edges were removed.
func (v *ResultView) DroppedEdges() int {
	return v.scope.Dropped()
}
