package graph

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/pcapview/internal/model"
)

func TestMermaidFlowchart(t *testing.T) {
	v := 12.0
	nodes := []model.GraphNode{
		{ID: "10.0.0.1", Label: "10.0.0.1", Group: model.GroupInternal},
		{ID: "2001:db8::1", Label: "2001:db8::1", Group: model.GroupExternal, Country: "France"},
	}
	edges := []model.GraphEdge{
		{From: "10.0.0.1", To: "2001:db8::1", Value: &v},
		{From: "10.0.0.1", To: "missing"},
	}

	out := Mermaid(nodes, edges)
	assert.True(t, strings.HasPrefix(out, "flowchart LR\n"))
	assert.Contains(t, out, `N10_0_0_1["10.0.0.1"]:::internal`)
	assert.Contains(t, out, `N2001_db8__1["2001:db8::1<br>France"]:::external`)
	assert.Contains(t, out, "N10_0_0_1 -- 12 --- N2001_db8__1")
	assert.NotContains(t, out, "missing")

	md := MermaidMarkdown(nodes, edges)
	assert.True(t, strings.HasPrefix(md, "```mermaid\n"))
	assert.True(t, strings.HasSuffix(md, "```\n"))
}

func TestMermaidEmpty(t *testing.T) {
	assert.Contains(t, Mermaid(nil, nil), "No network data to display.")
}

func TestTopTalkers(t *testing.T) {
	three := 3.0
	nodes := []model.GraphNode{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []model.GraphEdge{{From: "a", To: "b", Value: &three}, {From: "b", To: "c"}}
	assert.Equal(t, []string{"b", "a"}, TopTalkers(nodes, edges, 2))
	assert.Equal(t, map[model.Group]int{"": 3}, Summary(nodes))
}

type stubLookup struct {
	calls   int
	country string
	isp     string
	err     error
}

func (s *stubLookup) Country(net.IP) (string, error) {
	s.calls++
	return s.country, s.err
}

func (s *stubLookup) ISP(net.IP) (string, error) {
	return s.isp, s.err
}

func TestGeoAnnotatorFillsGapsOnExternalOnly(t *testing.T) {
	lookup := &stubLookup{country: "Netherlands", isp: "Example BV"}
	a := NewGeoAnnotator(lookup)

	in := []model.GraphNode{
		{ID: "10.0.0.1", Group: model.GroupInternal},
		{ID: "203.0.113.9", Group: model.GroupExternal, ISP: "From Service"},
		{ID: "not-an-ip", Group: model.GroupExternal},
	}
	out := a.Annotate(in)

	assert.Empty(t, out[0].Country)
	assert.Equal(t, "Netherlands", out[1].Country)
	assert.Equal(t, "From Service", out[1].ISP)
	assert.Empty(t, out[2].Country)
	assert.Empty(t, in[1].Country, "input must not be modified")

	a.Annotate(in)
	assert.Equal(t, 1, lookup.calls, "lookups are cached")
}

func TestGeoAnnotatorLookupErrors(t *testing.T) {
	a := NewGeoAnnotator(&stubLookup{err: errors.New("not in database")})
	out := a.Annotate([]model.GraphNode{{ID: "198.51.100.1", Group: model.GroupExternal}})
	assert.Empty(t, out[0].Country)

	var nilAnnotator *GeoAnnotator
	nodes := []model.GraphNode{{ID: "x"}}
	assert.Equal(t, nodes, nilAnnotator.Annotate(nodes))
}

func TestOpenMaxMindRequiresADatabase(t *testing.T) {
	_, err := OpenMaxMind("", "")
	assert.Error(t, err)
	_, err = OpenMaxMind("/nonexistent/city.mmdb", "")
	assert.Error(t, err)
}
