package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/history"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/storage"
	"github.com/user/pcapview/internal/util"
	"github.com/user/pcapview/internal/view"
)

// maxMemory is how much of a multipart upload is buffered before spilling to disk.
const maxMemory = 32 << 20

// Handlers contains HTTP handlers. Each request builds its own views, so no
// state is shared between requests.
type Handlers struct {
	config  *util.Config
	client  *client.Client
	journal storage.Recorder
	geo     *graph.GeoAnnotator
}

// NewHandlers creates new handlers.
func NewHandlers(cfg *util.Config, c *client.Client, journal storage.Recorder, geo *graph.GeoAnnotator) *Handlers {
	return &Handlers{
		config:  cfg,
		client:  c,
		journal: journal,
		geo:     geo,
	}
}

// UploadPage serves the empty upload form.
func (h *Handlers) UploadPage(w http.ResponseWriter, r *http.Request) {
	v := view.NewUploadView()
	defer v.Reset()
	h.render(w, http.StatusOK, "upload", uploadPage{Layout: h.layout("upload"), Message: v.Message()})
}

// Upload forwards the posted capture to the analysis service and renders the result.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	v := view.NewUploadView()
	defer v.Reset()

	data := uploadPage{Layout: h.layout("upload")}

	file, hdr, err := h.formFile(r)
	if err != nil {
		util.Warn("Reading upload form failed: %v", err)
	}
	if file != nil {
		defer file.Close()
		v.SelectFile(hdr.Filename)
	}

	ticket, _, ok := v.Submit()
	if !ok {
		data.Message = v.Message()
		h.render(w, http.StatusBadRequest, "upload", data)
		return
	}

	done := storage.Track(h.journal, hdr.Filename, hdr.Size)
	resp, err := h.client.Upload(r.Context(), hdr.Filename, file)
	v.Complete(ticket, resp, err)

	data.Message = v.Message()
	res, ok := v.Result()
	if !ok {
		done(nil, data.Message)
		data.Failed = true
		h.render(w, http.StatusOK, "upload", data)
		return
	}
	done(&res, data.Message)

	rv := view.NewResultView(graph.VisRenderer{}, h.geo)
	defer rv.Close()
	if err := rv.Show(res); err != nil {
		util.Warn("Rendering upload graph failed: %v", err)
	}
	data.Result = newResultSection(rv)
	h.render(w, http.StatusOK, "upload", data)
}

func (h *Handlers) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, nil, err
	}
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if hdr.Filename == "" {
		f.Close()
		return nil, nil, nil
	}
	return f, hdr, nil
}

// HistoryPage lists one page of analysis history.
// Query: page (1-based), sort (id|filename|timestamp|status), dir (asc|desc).
func (h *Handlers) HistoryPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := view.NewHistoryView(h.config.PageSize, h.config.MaxPageButtons)
	v.SetSort(parseSort(q))

	pageNum, _ := strconv.Atoi(q.Get("page"))
	req := v.Open(pageNum)
	page, err := h.client.History(r.Context(), req.Skip, req.Limit)
	v.Receive(req.Ticket, page, err)

	snap := v.Snapshot()
	if snap.OutOfRange {
		http.Redirect(w, r, historyURL(snap.Window.TotalPages, snap.Sort), http.StatusSeeOther)
		return
	}

	h.render(w, http.StatusOK, "history", newHistoryPage(h.layout("history"), snap))
}

// DetailPage shows one analysis record.
func (h *Handlers) DetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	v := view.NewDetailView(graph.VisRenderer{}, h.geo)
	defer v.Close()

	ticket := v.Load(id)
	rec, err := h.client.Record(r.Context(), id)
	v.Receive(ticket, rec, err)

	snap := v.Snapshot()
	data := detailPage{Layout: h.layout("history"), Snap: snap}
	if snap.Result != nil {
		data.Result = newResultSection(snap.Result)
		data.MermaidURL = fmt.Sprintf("/history/%d/graph.mmd", id)
	}

	status := http.StatusOK
	switch {
	case snap.NotFound:
		status = http.StatusNotFound
	case snap.Failed:
		status = http.StatusBadGateway
	}
	h.render(w, status, "detail", data)
}

// DownloadMermaid exports a record's host graph as a Mermaid flowchart.
func (h *Handlers) DownloadMermaid(w http.ResponseWriter, r *http.Request) {
	rec, status, err := h.fetchAnalysis(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	nodes := h.geo.Annotate(rec.AnalysisData.Nodes)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis-%d.mmd"`, rec.ID))
	fmt.Fprint(w, graph.Mermaid(nodes, rec.AnalysisData.Edges))
}

// APIGraph returns the vis-network payload for a record.
func (h *Handlers) APIGraph(w http.ResponseWriter, r *http.Request) {
	rec, status, err := h.fetchAnalysis(r)
	if err != nil {
		writeError(w, err, status)
		return
	}

	rv := view.NewResultView(graph.VisRenderer{}, h.geo)
	defer rv.Close()
	if err := rv.Show(*rec.AnalysisData); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	payload, ok := rv.Graph().(*graph.VisPayload)
	if !ok {
		// no nodes: an empty graph, not an error
		writeJSON(w, map[string]interface{}{"nodes": []interface{}{}, "edges": []interface{}{}, "options": graph.VisOptions})
		return
	}
	body, err := payload.JSON()
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Health reports liveness and the configured service.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":      "ok",
		"service_url": h.client.BaseURL(),
	})
}

func (h *Handlers) fetchAnalysis(r *http.Request) (*model.AnalysisRecord, int, error) {
	id, err := recordID(r)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	rec, err := h.client.Record(r.Context(), id)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return nil, http.StatusNotFound, fmt.Errorf("No record found for ID: %d", id)
	case err != nil:
		return nil, http.StatusBadGateway, errors.New(client.UserMessage(err))
	case !rec.HasAnalysis():
		return nil, http.StatusNotFound, fmt.Errorf("No analysis data available for this record (status: %s).", rec.Status)
	}
	return rec, http.StatusOK, nil
}

func (h *Handlers) layout(active string) Layout {
	return Layout{Active: active, ServiceURL: h.client.BaseURL()}
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := GetTemplates().ExecuteTemplate(w, name, data); err != nil {
		util.Error("Rendering template %s failed: %v", name, err)
	}
}

func recordID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func parseSort(q url.Values) history.SortState {
	s := history.DefaultSort
	if col, ok := history.ParseColumn(q.Get("sort")); ok {
		s.Column = col
		s.Direction = history.Asc
	}
	if dir, ok := history.ParseDirection(q.Get("dir")); ok {
		s.Direction = dir
	}
	return s
}

func historyURL(page int, s history.SortState) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", string(s.Column))
	q.Set("dir", string(s.Direction))
	return "/history?" + q.Encode()
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}
