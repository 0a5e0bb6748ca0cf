// Package graph turns analysis results into renderable host graphs.
package graph

import (
	"html"
	"strconv"
	"strings"

	"github.com/user/pcapview/internal/model"
)

const notAvailable = "N/A"

// EnrichedNode is a node plus its hover tooltip. The tooltip is serialized
// as "title", the field vis-network reads for hover content.
type EnrichedNode struct {
	model.GraphNode
	Tooltip string `json:"title"`
}

// Enrich computes tooltips for every node. Output aligns 1:1 with input.
func Enrich(nodes []model.GraphNode) []EnrichedNode {
	out := make([]EnrichedNode, len(nodes))
	for i, n := range nodes {
		out[i] = EnrichedNode{GraphNode: n, Tooltip: Tooltip(n)}
	}
	return out
}

// Tooltip renders the hover text for a node as a small HTML fragment.
// Only external nodes list country, ISP, usage type and abuse score.
// A node without a label is titled by its id.
func Tooltip(n model.GraphNode) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}

	var sb strings.Builder
	sb.WriteString("<b>IP: ")
	sb.WriteString(html.EscapeString(label))
	sb.WriteString("</b>")

	if !n.External() {
		return sb.String()
	}

	sb.WriteString("<br>--------------------")
	writeField(&sb, "Country", n.Country)
	writeField(&sb, "ISP", n.ISP)
	writeField(&sb, "Usage Type", n.UsageType)

	score := notAvailable
	if n.AbuseScore != nil {
		score = strconv.FormatFloat(*n.AbuseScore, 'f', -1, 64)
	}
	writeField(&sb, "Abuse Score", score)

	return sb.String()
}

func writeField(sb *strings.Builder, name, value string) {
	if value == "" {
		value = notAvailable
	}
	sb.WriteString("<br>")
	sb.WriteString(name)
	sb.WriteString(": ")
	sb.WriteString(html.EscapeString(value))
}

// TooltipText strips the markup from a tooltip for plain-text surfaces.
func TooltipText(tooltip string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<br>", "\n")
	return html.UnescapeString(r.Replace(tooltip))
}

// PruneEdges drops edges whose endpoints are not among nodes.
// It returns the kept edges in input order and the number dropped.
func PruneEdges(nodes []model.GraphNode, edges []model.GraphEdge) ([]model.GraphEdge, int) {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}

	kept := make([]model.GraphEdge, 0, len(edges))
	for _, e := range edges {
		_, okFrom := ids[e.From]
		_, okTo := ids[e.To]
		if okFrom && okTo {
			kept = append(kept, e)
		}
	}
	return kept, len(edges) - len(kept)
}
