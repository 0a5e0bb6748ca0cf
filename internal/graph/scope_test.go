package graph

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/pcapview/internal/metrics"
	"github.com/user/pcapview/internal/model"
)

type fakeInstance struct {
	id        int
	destroyed bool
	log       *[]string
}

func (f *fakeInstance) Destroy() {
	f.destroyed = true
	*f.log = append(*f.log, "destroy")
}

type fakeRenderer struct {
	log       []string
	instances []*fakeInstance
	fail      bool
	last      Data
}

func (r *fakeRenderer) Render(d Data) (Instance, error) {
	if r.fail {
		r.log = append(r.log, "fail")
		return nil, errors.New("canvas unavailable")
	}
	r.log = append(r.log, "render")
	r.last = d
	inst := &fakeInstance{id: len(r.instances), log: &r.log}
	r.instances = append(r.instances, inst)
	return inst, nil
}

var (
	twoNodes = []model.GraphNode{
		{ID: "10.0.0.1", Group: model.GroupInternal},
		{ID: "8.8.8.8", Group: model.GroupExternal},
	}
	oneEdge = []model.GraphEdge{{From: "10.0.0.1", To: "8.8.8.8"}}
)

func activeGauge() float64 { return testutil.ToFloat64(metrics.GraphInstancesActive) }

func TestScopeSameValueIsNoop(t *testing.T) {
	r := &fakeRenderer{}
	s := NewScope(r)
	defer s.Release()

	require.NoError(t, s.Update(twoNodes, oneEdge))
	copyNodes := append([]model.GraphNode(nil), twoNodes...)
	require.NoError(t, s.Update(copyNodes, oneEdge))

	assert.Equal(t, []string{"render"}, r.log)
}

func TestScopeDestroysBeforeNextRender(t *testing.T) {
	base := activeGauge()
	r := &fakeRenderer{}
	s := NewScope(r)

	require.NoError(t, s.Update(twoNodes, oneEdge))
	require.NoError(t, s.Update(twoNodes[:1], nil))

	assert.Equal(t, []string{"render", "destroy", "render"}, r.log)
	assert.True(t, r.instances[0].destroyed)
	assert.False(t, r.instances[1].destroyed)
	assert.Equal(t, base+1, activeGauge())

	s.Release()
	assert.True(t, r.instances[1].destroyed)
	assert.Equal(t, base, activeGauge())
	assert.Nil(t, s.Instance())
}

func TestScopeEmptyNodesIsPlaceholder(t *testing.T) {
	r := &fakeRenderer{}
	s := NewScope(r)

	require.NoError(t, s.Update(twoNodes, oneEdge))
	require.NoError(t, s.Update(nil, oneEdge))

	assert.Equal(t, []string{"render", "destroy"}, r.log)
	assert.True(t, s.Placeholder())
	assert.Nil(t, s.Instance())
}

func TestScopeFailedRenderLeavesNoInstance(t *testing.T) {
	base := activeGauge()
	r := &fakeRenderer{}
	s := NewScope(r)

	require.NoError(t, s.Update(twoNodes, oneEdge))
	r.fail = true
	err := s.Update(twoNodes[:1], nil)
	require.Error(t, err)

	assert.Nil(t, s.Instance())
	assert.False(t, s.Placeholder())
	assert.True(t, r.instances[0].destroyed)
	assert.Equal(t, base, activeGauge())

	// same value is retried after a failure
	r.fail = false
	require.NoError(t, s.Update(twoNodes[:1], nil))
	assert.NotNil(t, s.Instance())
	s.Release()
	assert.Equal(t, base, activeGauge())
}

func TestScopePrunesAndEnriches(t *testing.T) {
	r := &fakeRenderer{}
	s := NewScope(r)
	defer s.Release()

	edges := append([]model.GraphEdge{{From: "10.0.0.1", To: "ghost"}}, oneEdge...)
	require.NoError(t, s.Update(twoNodes, edges))

	assert.Equal(t, 1, s.Dropped())
	require.Len(t, r.last.Edges, 1)
	require.Len(t, r.last.Nodes, 2)
	assert.Equal(t, "<b>IP: 10.0.0.1</b>", r.last.Nodes[0].Tooltip)
	assert.Equal(t, r.last, s.Data())
}

func TestFingerprintDistinguishesValues(t *testing.T) {
	assert.Equal(t, Fingerprint(twoNodes, oneEdge), Fingerprint(twoNodes, oneEdge))
	assert.NotEqual(t, Fingerprint(twoNodes, oneEdge), Fingerprint(twoNodes, nil))
}
