package view

import (
	"errors"
	"fmt"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/util"
)

// Detail messages shown to the operator.
const (
	MsgDetailLoading = "Loading analysis details..."
	MsgDetailFailed  = "Failed to fetch analysis details. Please ensure the backend is running and the record ID is valid."
)

// DetailView shows one history record addressed by id.
type DetailView struct {
	id     int64
	gen    Generation
	result *ResultView

	loading  bool
	notFound bool
	failed   bool
	record   *model.AnalysisRecord
}

// NewDetailView creates a detail view rendering graphs with r.
func NewDetailView(r graph.Renderer, annotate *graph.GeoAnnotator) *DetailView {
	return &DetailView{
		gen:    NewGeneration("detail"),
		result: NewResultView(r, annotate),
	}
}

// Load starts fetching record id. Any earlier fetch becomes stale.
func (v *DetailView) Load(id int64) Ticket {
	v.id = id
	v.loading = true
	v.notFound = false
	v.failed = false
	v.record = nil
	v.result.Clear()
	return v.gen.Next()
}

// ID returns the addressed record id.
func (v *DetailView) ID() int64 {
	return v.id
}

// Receive commits the fetch issued with t. Stale responses are discarded.
func (v *DetailView) Receive(t Ticket, rec *model.AnalysisRecord, err error) bool {
	if !v.gen.Accept(t) {
		return false
	}
	v.loading = false

	switch {
	case errors.Is(err, client.ErrNotFound), err == nil && rec == nil:
		util.Warn("Record %d not found", v.id)
		v.notFound = true
		return true
	case err != nil:
		util.Warn("Fetching record %d failed: %v", v.id, err)
		v.failed = true
		return true
	}

	v.record = rec
	if rec.HasAnalysis() {
		if rerr := v.result.Show(*rec.AnalysisData); rerr != nil {
			util.Warn("Rendering graph for record %d failed: %v", v.id, rerr)
		}
	}
	return true
}

// Close releases the graph and invalidates any in-flight fetch.
func (v *DetailView) Close() {
	v.gen.Invalidate()
	v.result.Close()
}

// DetailSnapshot is everything a front end needs to draw the record.
type DetailSnapshot struct {
	Loading   bool
	Message   string
	Failed    bool
	NotFound  bool
	Record    *model.AnalysisRecord
	Title     string
	Status    model.Status
	Timestamp string
	Error     string
	// HasAnalysis is set when alerts and graph are shown.
	HasAnalysis bool
	NoDataText  string
	Result      *ResultView
}

// Snapshot renders the current state.
func (v *DetailView) Snapshot() DetailSnapshot {
	snap := DetailSnapshot{Loading: v.loading, Failed: v.failed, NotFound: v.notFound}

	switch {
	case v.loading:
		snap.Message = MsgDetailLoading
		return snap
	case v.failed:
		snap.Message = MsgDetailFailed
		return snap
	case v.notFound:
		snap.Message = fmt.Sprintf("No record found for ID: %d", v.id)
		return snap
	case v.record == nil:
		return snap
	}

	r := v.record
	snap.Record = r
	snap.Title = fmt.Sprintf("Analysis Details for %s (ID: %d)", r.Filename, r.ID)
	snap.Status = r.Status
	snap.Timestamp = r.Timestamp.Display()
	snap.Error = r.ErrorMessage
	snap.HasAnalysis = r.HasAnalysis()
	if snap.HasAnalysis {
		snap.Result = v.result
	} else {
		snap.NoDataText = fmt.Sprintf("No analysis data available for this record (status: %s).", r.Status)
	}
	return snap
}
