package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/pcapview/internal/graph"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/view"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")).
		Bold(true)

	failStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Underline(true)
)

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label+":")), valueStyle.Render(value))
}

func statusText(s model.Status) string {
	switch s {
	case model.StatusSuccess:
		return okStyle.Render(string(s))
	case model.StatusFailure:
		return failStyle.Render(string(s))
	}
	return string(s)
}

// printTable writes rows under a header with columns padded to fit.
func printTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], len([]rune(c)))
		}
	}

	line := func(cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = c + strings.Repeat(" ", widths[i]-len([]rune(c)))
		}
		return strings.TrimRight(strings.Join(out, "  "), " ")
	}

	fmt.Fprintln(w, headerStyle.Render(line(header)))
	for _, r := range rows {
		fmt.Fprintln(w, line(r))
	}
}

// printResult writes a host summary, the alerts table and optionally an
// ASCII plot of the host graph.
func printResult(w io.Writer, rv *view.ResultView, plot bool) {
	data := rv.GraphData()

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Hosts"))
	if ph := rv.GraphPlaceholder(); ph != "" {
		fmt.Fprintln(w, labelStyle.Render(ph))
	} else if err := rv.GraphError(); err != nil {
		fmt.Fprintln(w, failStyle.Render("Graph could not be drawn: "+err.Error()))
	} else {
		nodes := make([]model.GraphNode, len(data.Nodes))
		for i, n := range data.Nodes {
			nodes[i] = n.GraphNode
		}
		summary := graph.Summary(nodes)
		groups := make([]string, 0, len(summary))
		for g, n := range summary {
			groups = append(groups, fmt.Sprintf("%s %d", g, n))
		}
		sort.Strings(groups)
		printField(w, "Hosts", fmt.Sprintf("%d (%s)", len(nodes), strings.Join(groups, ", ")))
		printField(w, "Connections", fmt.Sprint(len(data.Edges)))
		if top := graph.TopTalkers(nodes, data.Edges, 5); len(top) > 0 {
			printField(w, "Top talkers", strings.Join(top, ", "))
		}
		if n := rv.DroppedEdges(); n > 0 {
			printField(w, "Dropped", fmt.Sprintf("%d edge(s) with unknown hosts", n))
		}

		if sim, ok := rv.Graph().(*graph.Simulation); ok && plot {
			sim.Stabilize()
			fmt.Fprintln(w)
			fmt.Fprintln(w, sim.Plot(72, 18, ""))
			fmt.Fprintln(w)
			for _, n := range data.Nodes {
				fmt.Fprintln(w, strings.ReplaceAll(graph.TooltipText(n.Tooltip), "\n", "  "))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Security Alerts"))
	alerts := rv.Alerts()
	if len(alerts) == 0 {
		fmt.Fprintln(w, labelStyle.Render(rv.AlertsPlaceholder()))
		return
	}
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{a.Timestamp, a.Source, a.Destination, a.Proto, a.Severity, a.Signature})
	}
	printTable(w, []string{"TIME", "SOURCE", "DESTINATION", "PROTO", "SEVERITY", "SIGNATURE"}, rows)
}
