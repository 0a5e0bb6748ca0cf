package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/view"
)

const (
	defaultWidth = 100
	graphHeight  = 16
)

// View renders the UI.
func (m appModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")

	var bindings []key.Binding
	switch m.screen {
	case screenUpload:
		sb.WriteString(m.renderUpload())
		bindings = m.keys.uploadHelp()
	case screenHistory:
		sb.WriteString(m.renderHistory())
		bindings = m.keys.historyHelp()
	case screenDetail:
		sb.WriteString(m.renderDetail())
		bindings = m.keys.detailHelp()
	}

	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render(m.help.ShortHelpView(bindings)))
	return sb.String()
}

func (m appModel) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

func (m appModel) renderHeader() string {
	tabs := []struct {
		name   string
		active bool
	}{
		{"Upload", m.screen == screenUpload},
		{"History", m.screen == screenHistory || m.screen == screenDetail},
	}

	parts := []string{HeaderStyle.Render("PCAP Analyzer")}
	for _, t := range tabs {
		if t.active {
			parts = append(parts, ActiveTabStyle.Render(t.name))
		} else {
			parts = append(parts, TabStyle.Render(t.name))
		}
	}
	parts = append(parts, DimStyle.Render(m.config.ServiceURL))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m appModel) renderUpload() string {
	var sb strings.Builder
	sb.WriteString(LabelStyle.Render("File"))
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	msg := m.upload.Message()
	switch m.upload.State().(type) {
	case view.Uploading:
		sb.WriteString(m.spinner.View() + " " + msg)
	case view.Succeeded:
		sb.WriteString(SuccessStyle.Render(msg))
	case view.Failed:
		sb.WriteString(ErrorStyle.Render(msg))
	default:
		if msg != "" {
			sb.WriteString(WarningStyle.Render(msg))
		}
	}
	sb.WriteString("\n")

	if _, ok := m.upload.Result(); ok {
		sb.WriteString("\n")
		sb.WriteString(m.renderResult(m.uploadResult))
	}
	return sb.String()
}

// renderResult draws the graph plot, the selected host and the alerts table.
func (m appModel) renderResult(rv *view.ResultView) string {
	width := m.contentWidth() - 4
	var sb strings.Builder

	sb.WriteString(SectionTitleStyle.Render("Network Graph"))
	sb.WriteString("\n")
	switch sim, _ := rv.Graph().(*graph.Simulation); {
	case rv.GraphError() != nil:
		sb.WriteString(ErrorStyle.Render("Graph could not be drawn: " + rv.GraphError().Error()))
	case sim == nil:
		sb.WriteString(DimStyle.Render(rv.GraphPlaceholder()))
	default:
		nodes := sim.Nodes()
		selected := nodes[m.node%len(nodes)]
		sb.WriteString(SectionStyle.Render(sim.Plot(width-4, graphHeight, selected.ID)))
		sb.WriteString("\n")
		if !sim.Stable() {
			sb.WriteString(DimStyle.Render(fmt.Sprintf("stabilizing... %d iterations", sim.Iterations())))
			sb.WriteString("\n")
		}
		if n := rv.DroppedEdges(); n > 0 {
			sb.WriteString(WarningStyle.Render(fmt.Sprintf("%d edge(s) referenced unknown hosts and were not drawn.", n)))
			sb.WriteString("\n")
		}
		sb.WriteString(ValueStyle.Render(graph.TooltipText(selected.Tooltip)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(SectionTitleStyle.Render("Security Alerts"))
	sb.WriteString("\n")
	rows := rv.Alerts()
	if len(rows) == 0 {
		sb.WriteString(DimStyle.Render(rv.AlertsPlaceholder()))
		sb.WriteString("\n")
		return sb.String()
	}

	cols := []int{20, 22, 22, 6, 9}
	sigWidth := max(10, width-sum(cols)-len(cols))
	header := []string{"Time", "Source", "Destination", "Proto", "Severity", "Signature"}
	sb.WriteString(TableHeaderStyle.Render(tableLine(header, append(cols, sigWidth))))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(strings.Join([]string{
			pad(r.Timestamp, cols[0]),
			pad(r.Source, cols[1]),
			pad(r.Destination, cols[2]),
			pad(r.Proto, cols[3]),
			SeverityStyle(r.Severity).Render(pad(r.Severity, cols[4])),
			pad(r.Signature, sigWidth),
		}, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m appModel) renderHistory() string {
	snap := m.history.Snapshot()
	var sb strings.Builder
	sb.WriteString(SectionTitleStyle.Render("Analysis History"))
	sb.WriteString("\n\n")

	switch {
	case snap.Loading:
		sb.WriteString(m.spinner.View() + " " + snap.Message)
		return sb.String() + "\n"
	case snap.Failed:
		sb.WriteString(ErrorStyle.Render(snap.Message))
		sb.WriteString("\n")
		sb.WriteString(DimStyle.Render("press r to retry"))
		return sb.String() + "\n"
	case snap.Message != "":
		sb.WriteString(DimStyle.Render(snap.Message))
		return sb.String() + "\n"
	}

	width := m.contentWidth()
	cols := []int{6, 28, 20, 9}
	errWidth := max(10, width-sum(cols)-len(cols))

	titles := make([]string, 0, len(snap.Headers)+1)
	for i, h := range snap.Headers {
		t := fmt.Sprintf("%d %s", i+1, h.Title)
		if h.Indicator != "" {
			t += " " + h.Indicator
		}
		titles = append(titles, t)
	}
	titles = append(titles, "Error")
	sb.WriteString(TableHeaderStyle.Render(tableLine(titles, append(cols, errWidth))))
	sb.WriteString("\n")

	for i, r := range snap.Rows {
		status := StatusStyle(string(r.Status))
		line := strings.Join([]string{
			pad(fmt.Sprint(r.ID), cols[0]),
			pad(r.Filename, cols[1]),
			pad(r.Timestamp, cols[2]),
			pad(string(r.Status), cols[3]),
			pad(r.Error, errWidth),
		}, " ")
		if i == m.row {
			sb.WriteString(SelectedRowStyle.Render(line))
		} else {
			sb.WriteString(status.Render(line))
		}
		sb.WriteString("\n")
	}

	if snap.ShowPagination {
		sb.WriteString("\n")
		sb.WriteString(renderPagination(snap))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderPagination(snap view.HistorySnapshot) string {
	w := snap.Window
	parts := make([]string, 0, len(w.Pages)+3)

	prev := "◀ Prev"
	if w.HasPrev() {
		parts = append(parts, ValueStyle.Render(prev))
	} else {
		parts = append(parts, DimStyle.Render(prev))
	}
	for _, p := range w.Pages {
		if p == w.CurrentPage {
			parts = append(parts, ActiveTabStyle.Render(fmt.Sprintf("[%d]", p)))
		} else {
			parts = append(parts, TabStyle.Render(fmt.Sprint(p)))
		}
	}
	next := "Next ▶"
	if w.HasNext() {
		parts = append(parts, ValueStyle.Render(next))
	} else {
		parts = append(parts, DimStyle.Render(next))
	}
	parts = append(parts, DimStyle.Render(fmt.Sprintf("page %d of %d, %d records", w.CurrentPage, w.TotalPages, snap.Total)))
	return strings.Join(parts, " ")
}

func (m appModel) renderDetail() string {
	snap := m.detail.Snapshot()
	var sb strings.Builder

	switch {
	case snap.Loading:
		return m.spinner.View() + " " + snap.Message + "\n"
	case snap.Failed, snap.NotFound:
		return ErrorStyle.Render(snap.Message) + "\n"
	case snap.Record == nil:
		return ""
	}

	sb.WriteString(SectionTitleStyle.Render(snap.Title))
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render("Status"))
	sb.WriteString(StatusStyle(string(snap.Status)).Render(string(snap.Status)))
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render("Timestamp"))
	sb.WriteString(snap.Timestamp)
	sb.WriteString("\n")
	if snap.Error != "" {
		sb.WriteString(LabelStyle.Render("Error"))
		sb.WriteString(ErrorStyle.Render(snap.Error))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if snap.Result == nil {
		sb.WriteString(DimStyle.Render(snap.NoDataText))
		sb.WriteString("\n")
		return sb.String()
	}
	sb.WriteString(m.renderResult(snap.Result))
	return sb.String()
}

func tableLine(cells []string, widths []int) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = pad(c, widths[i])
	}
	return strings.Join(out, " ")
}

func sum(vs []int) int {
	total := 0
	for _, v := range vs {
		total += v
	}
	return total
}
