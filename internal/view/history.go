package view

import (
	"github.com/user/pcapview/internal/history"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/util"
)

// History messages shown to the operator.
const (
	MsgHistoryLoading = "Loading history..."
	MsgHistoryEmpty   = "No analysis records found. Upload a pcap file to start!"
	MsgHistoryFailed  = "Failed to fetch history. Please ensure the backend is running."
)

// FetchRequest describes the history fetch a caller must perform.
type FetchRequest struct {
	Ticket Ticket
	Skip   int
	Limit  int
}

// HistoryView pages through analysis history one fetch per page change.
type HistoryView struct {
	pager      history.Pager
	maxButtons int
	sort       history.SortState
	gen        Generation

	loading bool
	loaded  bool
	failed  bool
	records []model.AnalysisRecord
}

// NewHistoryView starts on page 1 sorted newest first.
func NewHistoryView(pageSize, maxButtons int) *HistoryView {
	return &HistoryView{
		pager:      history.NewPager(pageSize),
		maxButtons: maxButtons,
		sort:       history.DefaultSort,
		gen:        NewGeneration("history"),
	}
}

// Open jumps to page without checking it against the total, which is not
// known before the first fetch. Used when a page is addressed directly.
func (v *HistoryView) Open(page int) FetchRequest {
	if page < 1 {
		page = 1
	}
	v.pager.Page = page
	return v.Request()
}

// Request (re)fetches the current page. Earlier fetches become stale and
// the page data shown so far is dropped.
func (v *HistoryView) Request() FetchRequest {
	v.loading = true
	v.failed = false
	v.records = nil
	return FetchRequest{
		Ticket: v.gen.Next(),
		Skip:   v.pager.Skip(),
		Limit:  v.pager.PageSize,
	}
}

// GoTo moves to page p. Out-of-range pages are ignored and no fetch is needed.
func (v *HistoryView) GoTo(p int) (FetchRequest, bool) {
	if !v.pager.GoTo(p) {
		return FetchRequest{}, false
	}
	return v.Request(), true
}

// Next moves one page forward.
func (v *HistoryView) Next() (FetchRequest, bool) {
	return v.GoTo(v.pager.Page + 1)
}

// Prev moves one page back.
func (v *HistoryView) Prev() (FetchRequest, bool) {
	return v.GoTo(v.pager.Page - 1)
}

// SetPageSize changes the page size and refetches from page 1.
func (v *HistoryView) SetPageSize(size int) (FetchRequest, bool) {
	if !v.pager.SetPageSize(size) {
		return FetchRequest{}, false
	}
	return v.Request(), true
}

// SortBy toggles the sort column. Only the fetched page is reordered.
func (v *HistoryView) SortBy(col history.Column) {
	v.sort = v.sort.Toggle(col)
}

// SetSort replaces the sort state, e.g. from a URL.
func (v *HistoryView) SetSort(s history.SortState) {
	v.sort = s
}

// Sort returns the active sort.
func (v *HistoryView) Sort() history.SortState {
	return v.sort
}

// Page returns the current page number.
func (v *HistoryView) Page() int {
	return v.pager.Page
}

// Receive commits the response to the fetch issued with t. Stale responses
// are discarded and Receive returns false. Errors become view state.
func (v *HistoryView) Receive(t Ticket, page *model.HistoryPage, err error) bool {
	if !v.gen.Accept(t) {
		return false
	}
	v.loading = false
	v.loaded = true

	if err != nil || page == nil {
		util.Warn("Fetching history page %d failed: %v", v.pager.Page, err)
		v.failed = true
		v.records = nil
		return true
	}

	v.failed = false
	v.pager.Total = page.TotalCount
	v.records = page.Records
	return true
}

// HeaderCell is one sortable column header.
type HeaderCell struct {
	Column    history.Column
	Title     string
	Indicator string
}

// HistoryRow is one displayed record.
type HistoryRow struct {
	ID        int64
	Filename  string
	Timestamp string
	Status    model.Status
	Error     string
}

// HistorySnapshot is everything a front end needs to draw the list.
type HistorySnapshot struct {
	Loading        bool
	Failed         bool
	Message        string
	Headers        []HeaderCell
	Rows           []HistoryRow
	Sort           history.SortState
	Window         history.Window
	ShowPagination bool
	// OutOfRange is set when the current page lies past the last page,
	// e.g. after records were deleted or a stale URL was followed.
	OutOfRange bool
	Page       int
	PageSize   int
	Total      int
}

// Snapshot renders the current state. Rows are sorted on every call.
func (v *HistoryView) Snapshot() HistorySnapshot {
	snap := HistorySnapshot{
		Loading:  v.loading,
		Failed:   v.failed,
		Sort:     v.sort,
		Page:     v.pager.Page,
		PageSize: v.pager.PageSize,
		Total:    v.pager.Total,
	}

	switch {
	case v.loading:
		snap.Message = MsgHistoryLoading
		return snap
	case v.failed:
		snap.Message = MsgHistoryFailed
		return snap
	case !v.loaded:
		return snap
	case v.pager.Total == 0:
		snap.Message = MsgHistoryEmpty
		return snap
	}

	for _, col := range history.Columns {
		snap.Headers = append(snap.Headers, HeaderCell{
			Column:    col,
			Title:     col.Title(),
			Indicator: v.sort.Indicator(col),
		})
	}

	for _, r := range v.sort.Apply(v.records) {
		errText := r.ErrorMessage
		if errText == "" {
			errText = "-"
		}
		snap.Rows = append(snap.Rows, HistoryRow{
			ID:        r.ID,
			Filename:  r.Filename,
			Timestamp: r.Timestamp.Display(),
			Status:    r.Status,
			Error:     errText,
		})
	}

	snap.Window = v.pager.Window(v.maxButtons)
	snap.ShowPagination = true
	snap.OutOfRange = v.pager.Page > snap.Window.TotalPages
	return snap
}
