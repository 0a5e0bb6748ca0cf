package web

import (
	"html/template"
	"sync"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/view"
)

// Layout is the data every page shares.
type Layout struct {
	Active     string
	ServiceURL string
}

type uploadPage struct {
	Layout
	Message string
	Failed  bool
	Result  *resultSection
}

// resultSection is the alerts table and graph of one analysis.
type resultSection struct {
	Graph             *graph.VisPayload
	GraphPlaceholder  string
	GraphError        string
	Dropped           int
	Alerts            []view.AlertRow
	AlertsPlaceholder string
}

func newResultSection(rv *view.ResultView) *resultSection {
	s := &resultSection{
		GraphPlaceholder:  rv.GraphPlaceholder(),
		Dropped:           rv.DroppedEdges(),
		Alerts:            rv.Alerts(),
		AlertsPlaceholder: rv.AlertsPlaceholder(),
	}
	if p, ok := rv.Graph().(*graph.VisPayload); ok {
		s.Graph = p
	}
	if err := rv.GraphError(); err != nil {
		s.GraphError = err.Error()
	}
	return s
}

type headerLink struct {
	Title     string
	Indicator string
	URL       string
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type historyPage struct {
	Layout
	Snap    view.HistorySnapshot
	Headers []headerLink
	Pages   []pageLink
	// PrevURL and NextURL are empty at the bounds.
	PrevURL string
	NextURL string
}

func newHistoryPage(l Layout, snap view.HistorySnapshot) historyPage {
	p := historyPage{Layout: l, Snap: snap}
	for _, h := range snap.Headers {
		p.Headers = append(p.Headers, headerLink{
			Title:     h.Title,
			Indicator: h.Indicator,
			URL:       historyURL(snap.Page, snap.Sort.Toggle(h.Column)),
		})
	}
	for _, n := range snap.Window.Pages {
		p.Pages = append(p.Pages, pageLink{
			Number:  n,
			URL:     historyURL(n, snap.Sort),
			Current: n == snap.Window.CurrentPage,
		})
	}
	if snap.Window.HasPrev() {
		p.PrevURL = historyURL(snap.Window.CurrentPage-1, snap.Sort)
	}
	if snap.Window.HasNext() {
		p.NextURL = historyURL(snap.Window.CurrentPage+1, snap.Sort)
	}
	return p
}

type detailPage struct {
	Layout
	Snap       view.DetailSnapshot
	Result     *resultSection
	MermaidURL string
}

var (
	templates     *template.Template
	templatesOnce sync.Once
)

// GetTemplates returns the parsed page templates.
func GetTemplates() *template.Template {
	templatesOnce.Do(func() {
		templates = template.Must(template.New("pages").Parse(pagesHTML))
	})
	return templates
}

const pagesHTML = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.}} - PCAP Analyzer</title>
    <script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        :root {
            --bg-primary: #f4f6f8;
            --bg-card: #ffffff;
            --border-color: #d8dee4;
            --text-primary: #1f2328;
            --text-dim: #656d76;
            --accent: #007bff;
            --danger: #d1242f;
        }
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: var(--bg-primary); color: var(--text-primary); }
        nav { display: flex; gap: 20px; padding: 14px 28px; background: var(--bg-card); border-bottom: 1px solid var(--border-color); }
        nav a { color: var(--text-dim); text-decoration: none; font-weight: 600; }
        nav a.active { color: var(--accent); }
        nav .service { margin-left: auto; color: var(--text-dim); font-size: 12px; }
        main { max-width: 1200px; margin: 24px auto; padding: 0 28px; }
        h1 { font-size: 22px; margin-bottom: 16px; }
        h2 { font-size: 17px; margin: 24px 0 10px; }
        .card { background: var(--bg-card); border: 1px solid var(--border-color); border-radius: 6px; padding: 18px; }
        .message { margin: 12px 0; }
        .message.error { color: var(--danger); }
        .placeholder { color: var(--text-dim); padding: 24px; text-align: center; }
        table { width: 100%; border-collapse: collapse; font-size: 14px; }
        th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid var(--border-color); }
        th a { color: inherit; text-decoration: none; }
        .severity-high, .severity-critical { color: var(--danger); font-weight: 600; }
        .severity-medium { color: #bc4c00; }
        .severity-low { color: #1a7f37; }
        .network-graph-container { height: 500px; border: 1px solid var(--border-color); border-radius: 6px; background: #fff; }
        .pagination { display: flex; gap: 6px; margin-top: 16px; align-items: center; }
        .pagination a, .pagination span { padding: 4px 10px; border: 1px solid var(--border-color); border-radius: 4px; text-decoration: none; color: var(--accent); }
        .pagination .current { background: var(--accent); color: #fff; }
        .pagination .disabled { color: var(--text-dim); }
        .meta dt { font-weight: 600; float: left; width: 110px; }
        .meta dd { margin-bottom: 6px; }
    </style>
</head>
{{end}}

{{define "nav"}}
<nav>
    <a href="/"{{if eq .Active "upload"}} class="active"{{end}}>Upload</a>
    <a href="/history"{{if eq .Active "history"}} class="active"{{end}}>History</a>
    <span class="service">service: {{.ServiceURL}}</span>
</nav>
{{end}}

{{define "result"}}
<h2>Network Graph</h2>
{{if .Graph}}
<div id="network" class="network-graph-container"></div>
{{if .Dropped}}<p class="message">{{.Dropped}} edge(s) referenced unknown hosts and were not drawn.</p>{{end}}
<script>
(function () {
    var payload = {{.Graph}};
    var nodes = payload.nodes.map(function (n) {
        var el = document.createElement('div');
        el.innerHTML = n.title;
        return Object.assign({}, n, { title: el });
    });
    var network = new vis.Network(
        document.getElementById('network'),
        { nodes: new vis.DataSet(nodes), edges: new vis.DataSet(payload.edges) },
        payload.options
    );
    window.addEventListener('pagehide', function () { network.destroy(); });
})();
</script>
{{else if .GraphError}}
<div class="placeholder message error">Graph could not be drawn: {{.GraphError}}</div>
{{else}}
<div class="placeholder">{{.GraphPlaceholder}}</div>
{{end}}

<h2>Security Alerts</h2>
{{if .Alerts}}
<table>
    <thead><tr><th>Time</th><th>Source</th><th>Destination</th><th>Proto</th><th>Severity</th><th>Signature</th><th>Category</th></tr></thead>
    <tbody>
    {{range .Alerts}}
        <tr>
            <td>{{.Timestamp}}</td><td>{{.Source}}</td><td>{{.Destination}}</td><td>{{.Proto}}</td>
            <td class="{{.Class}}">{{.Severity}}</td><td>{{.Signature}}</td><td>{{.Category}}</td>
        </tr>
    {{end}}
    </tbody>
</table>
{{else}}
<div class="placeholder">{{.AlertsPlaceholder}}</div>
{{end}}
{{end}}

{{define "upload"}}{{template "head" "Upload"}}
<body>
{{template "nav" .Layout}}
<main>
    <h1>Upload PCAP for Analysis</h1>
    <div class="card">
        <form id="upload-form" method="post" action="/" enctype="multipart/form-data">
            <input type="file" id="file" name="file">
            <button type="submit" id="submit">Upload and Analyze</button>
        </form>
        <p id="status" class="message{{if .Failed}} error{{end}}">{{.Message}}</p>
    </div>
    {{with .Result}}{{template "result" .}}{{end}}
</main>
<script>
document.getElementById('upload-form').addEventListener('submit', function (e) {
    var file = document.getElementById('file');
    if (!file.files.length) {
        e.preventDefault();
        document.getElementById('status').textContent = 'Please select a file first.';
        return;
    }
    document.getElementById('submit').disabled = true;
    document.getElementById('status').className = 'message';
    document.getElementById('status').textContent = 'Uploading and analyzing... This may take a moment.';
});
</script>
</body>
</html>
{{end}}

{{define "history"}}{{template "head" "History"}}
<body>
{{template "nav" .Layout}}
<main>
    <h1>Analysis History</h1>
    <div class="card">
    {{if .Snap.Message}}
        <p class="placeholder{{if .Snap.Failed}} message error{{end}}">{{.Snap.Message}}</p>
    {{end}}
    {{if .Snap.Rows}}
        <table>
            <thead><tr>
            {{range .Headers}}<th><a href="{{.URL}}">{{.Title}} {{.Indicator}}</a></th>{{end}}
                <th>Error</th><th></th>
            </tr></thead>
            <tbody>
            {{range .Snap.Rows}}
                <tr>
                    <td>{{.ID}}</td><td>{{.Filename}}</td><td>{{.Timestamp}}</td><td>{{.Status}}</td><td>{{.Error}}</td>
                    <td><a href="/history/{{.ID}}">View Details</a></td>
                </tr>
            {{end}}
            </tbody>
        </table>
    {{end}}
    {{if .Snap.ShowPagination}}
        <div class="pagination">
            {{if .PrevURL}}<a href="{{.PrevURL}}">Previous</a>{{else}}<span class="disabled">Previous</span>{{end}}
            {{range .Pages}}{{if .Current}}<span class="current">{{.Number}}</span>{{else}}<a href="{{.URL}}">{{.Number}}</a>{{end}}{{end}}
            {{if .NextURL}}<a href="{{.NextURL}}">Next</a>{{else}}<span class="disabled">Next</span>{{end}}
            <span class="disabled">{{.Snap.Total}} records</span>
        </div>
    {{end}}
    </div>
</main>
</body>
</html>
{{end}}

{{define "detail"}}{{template "head" "Analysis Details"}}
<body>
{{template "nav" .Layout}}
<main>
    <p><a href="/history">&larr; Back to history</a></p>
    {{if .Snap.Record}}
        <h1>{{.Snap.Title}}</h1>
        <div class="card">
            <dl class="meta">
                <dt>Status</dt><dd>{{.Snap.Status}}</dd>
                <dt>Timestamp</dt><dd>{{.Snap.Timestamp}}</dd>
                {{if .Snap.Error}}<dt>Error</dt><dd class="message error">{{.Snap.Error}}</dd>{{end}}
            </dl>
            {{if .MermaidURL}}<p><a href="{{.MermaidURL}}">Download graph (Mermaid)</a></p>{{end}}
        </div>
        {{if .Result}}{{template "result" .Result}}{{else}}<p class="placeholder">{{.Snap.NoDataText}}</p>{{end}}
    {{else}}
        <p class="placeholder{{if .Snap.Failed}} message error{{end}}">{{.Snap.Message}}</p>
    {{end}}
</main>
</body>
</html>
{{end}}
`
