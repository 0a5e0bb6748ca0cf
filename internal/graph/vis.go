package graph

import (
	"encoding/json"
	"errors"
)

// VisOptions is the vis-network options object used by the browser graph.
var VisOptions = map[string]interface{}{
	"nodes": map[string]interface{}{
		"shape":       "dot",
		"size":        16,
		"font":        map[string]interface{}{"size": 14, "color": "#333"},
		"borderWidth": 2,
	},
	"edges": map[string]interface{}{
		"width":  2,
		"color":  map[string]interface{}{"color": "#848484", "highlight": "#007bff"},
		"arrows": map[string]interface{}{"to": map[string]interface{}{"enabled": false}},
	},
	"physics": map[string]interface{}{
		"enabled": true,
		"barnesHut": map[string]interface{}{
			"gravitationalConstant": -3000,
			"centralGravity":        0.3,
			"springLength":          95,
			"springConstant":        0.04,
			"damping":               0.09,
			"avoidOverlap":          0.1,
		},
		"solver": "barnesHut",
	},
	"interaction": map[string]interface{}{"hover": true, "tooltipDelay": 200},
	"height":      "500px",
}

// VisPayload is the serialized graph handed to vis-network in the browser.
type VisPayload struct {
	Nodes   []EnrichedNode         `json:"nodes"`
	Edges   []visEdge              `json:"edges"`
	Options map[string]interface{} `json:"options"`

	destroyed bool
}

type visEdge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *float64 `json:"value,omitempty"`
	Title string   `json:"title,omitempty"`
}

// VisRenderer builds VisPayload instances.
type VisRenderer struct{}

// Render converts d into a vis-network payload. Edge weight is used as the
// value when the service only sent a weight.
func (VisRenderer) Render(d Data) (Instance, error) {
	p := &VisPayload{
		Nodes:   d.Nodes,
		Edges:   make([]visEdge, len(d.Edges)),
		Options: VisOptions,
	}
	for i, e := range d.Edges {
		v := e.Value
		if v == nil {
			v = e.Weight
		}
		p.Edges[i] = visEdge{From: e.From, To: e.To, Value: v, Title: e.Title}
	}
	return p, nil
}

// JSON encodes the payload.
func (p *VisPayload) JSON() ([]byte, error) {
	if p.destroyed {
		return nil, errors.New("graph payload already released")
	}
	return json.Marshal(p)
}

// Destroy drops the payload contents.
func (p *VisPayload) Destroy() {
	p.destroyed = true
	p.Nodes = nil
	p.Edges = nil
}
