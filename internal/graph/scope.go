package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/user/pcapview/internal/metrics"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/util"
)

// Data is what a renderer receives: enriched nodes and edges that all resolve.
type Data struct {
	Nodes []EnrichedNode    `json:"nodes"`
	Edges []model.GraphEdge `json:"edges"`
}

// Instance is one live rendering. Destroy releases its simulation state.
type Instance interface {
	Destroy()
}

// Renderer constructs render instances.
type Renderer interface {
	Render(Data) (Instance, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Data) (Instance, error)

// Render calls f(d).
func (f RendererFunc) Render(d Data) (Instance, error) { return f(d) }

// Scope owns at most one render instance at a time.
// Update with a new (nodes, edges) value destroys the current instance
// before constructing the next. Release destroys it on teardown.
// A Scope is used from a single goroutine.
type Scope struct {
	renderer Renderer

	current     Instance
	data        Data
	fingerprint string
	loaded      bool
	dropped     int
}

// NewScope creates an empty scope backed by r.
func NewScope(r Renderer) *Scope {
	return &Scope{renderer: r}
}

// Update renders nodes and edges unless they equal the value already shown.
// Empty nodes leave the scope in the placeholder state with no instance.
// If construction fails the scope holds no instance and the error is returned.
func (s *Scope) Update(nodes []model.GraphNode, edges []model.GraphEdge) error {
	fp := Fingerprint(nodes, edges)
	if s.loaded && fp == s.fingerprint {
		return nil
	}

	s.destroy()
	s.data = Data{}
	s.dropped = 0
	s.fingerprint = fp
	s.loaded = true

	if len(nodes) == 0 {
		return nil
	}

	kept, dropped := PruneEdges(nodes, edges)
	if dropped > 0 {
		metrics.EdgesDroppedTotal.Add(float64(dropped))
		util.Warn("Dropped %d edges with unknown endpoints", dropped)
	}
	data := Data{Nodes: Enrich(nodes), Edges: kept}

	inst, err := s.renderer.Render(data)
	if err != nil {
		// Forget the value so the same data can be retried.
		s.fingerprint = ""
		s.loaded = false
		return fmt.Errorf("render graph: %w", err)
	}

	s.current = inst
	s.data = data
	s.dropped = dropped
	metrics.GraphInstancesActive.Inc()
	return nil
}

// Release destroys the current instance, if any. The scope may be reused.
func (s *Scope) Release() {
	s.destroy()
	s.data = Data{}
	s.fingerprint = ""
	s.loaded = false
	s.dropped = 0
}

// Instance returns the live instance or nil.
func (s *Scope) Instance() Instance {
	return s.current
}

// Data returns what the live instance was built from.
func (s *Scope) Data() Data {
	return s.data
}

// Placeholder reports whether the last update carried no nodes.
func (s *Scope) Placeholder() bool {
	return s.loaded && s.current == nil && len(s.data.Nodes) == 0
}

// Dropped returns the number of dangling edges removed in the last update.
func (s *Scope) Dropped() int {
	return s.dropped
}

func (s *Scope) destroy() {
	if s.current == nil {
		return
	}
	s.current.Destroy()
	s.current = nil
	metrics.GraphInstancesActive.Dec()
}

// Fingerprint identifies a (nodes, edges) value.
// Nil and empty slices are the same value.
func Fingerprint(nodes []model.GraphNode, edges []model.GraphEdge) string {
	if nodes == nil {
		nodes = []model.GraphNode{}
	}
	if edges == nil {
		edges = []model.GraphEdge{}
	}
	b, err := json.Marshal(struct {
		N []model.GraphNode `json:"n"`
		E []model.GraphEdge `json:"e"`
	}{nodes, edges})
	if err != nil {
		// Unreachable for these types; never equal to a real digest.
		return "unhashable"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
