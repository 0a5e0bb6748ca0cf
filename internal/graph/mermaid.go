package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/user/pcapview/internal/model"
)

// Mermaid renders a host graph as a Mermaid flowchart.
// Dangling edges are skipped. Internal and external hosts get separate classes.
func Mermaid(nodes []model.GraphNode, edges []model.GraphEdge) string {
	var sb strings.Builder

	sb.WriteString("flowchart LR\n")
	if len(nodes) == 0 {
		sb.WriteString("    empty[No network data to display.]\n")
		return sb.String()
	}

	for _, n := range nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		if n.External() && n.Country != "" {
			label = fmt.Sprintf("%s<br>%s", label, n.Country)
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]:::%s\n", nodeID(n.ID), escapeLabel(label), classFor(n)))
	}

	sb.WriteString("\n")

	kept, _ := PruneEdges(nodes, edges)
	for _, e := range kept {
		if m := e.Magnitude(); m != 1 {
			sb.WriteString(fmt.Sprintf("    %s -- %s --- %s\n", nodeID(e.From), strconv.FormatFloat(m, 'f', -1, 64), nodeID(e.To)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --- %s\n", nodeID(e.From), nodeID(e.To)))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef internal fill:#90EE90,stroke:#228B22\n")
	sb.WriteString("    classDef external fill:#87CEEB,stroke:#1E90FF\n")

	return sb.String()
}

// MermaidMarkdown wraps Mermaid output in a fenced block for markdown documents.
func MermaidMarkdown(nodes []model.GraphNode, edges []model.GraphEdge) string {
	return "```mermaid\n" + Mermaid(nodes, edges) + "```\n"
}

// Summary counts hosts per group, e.g. for CLI output.
func Summary(nodes []model.GraphNode) map[model.Group]int {
	out := make(map[model.Group]int)
	for _, n := range nodes {
		out[n.Group]++
	}
	return out
}

// TopTalkers returns up to limit node ids ordered by total edge magnitude.
func TopTalkers(nodes []model.GraphNode, edges []model.GraphEdge, limit int) []string {
	totals := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		totals[n.ID] = 0
	}
	kept, _ := PruneEdges(nodes, edges)
	for _, e := range kept {
		totals[e.From] += e.Magnitude()
		totals[e.To] += e.Magnitude()
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func classFor(n model.GraphNode) string {
	if n.External() {
		return "external"
	}
	return "internal"
}

// nodeID converts an address into a valid Mermaid node id.
func nodeID(id string) string {
	r := strings.NewReplacer(".", "_", ":", "_", "/", "_", "-", "_", " ", "_")
	return "N" + r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
