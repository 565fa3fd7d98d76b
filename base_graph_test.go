package debruijn

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearRefGraph builds a 3-vertex reference chain a->b->c with ref edges.
func linearRefGraph(t *testing.T) (g *BaseGraph, a, b, c *Vertex) {
	t.Helper()
	g, err := NewBaseGraph(3)
	require.NoError(t, err)
	a = NewVertex([]byte("ACG"))
	b = NewVertex([]byte("CGT"))
	c = NewVertex([]byte("GTA"))
	g.AddVertex(a)
	g.AddVertex(b)
	g.AddVertex(c)
	require.NoError(t, g.AddEdge(a, b, NewEdge(true, 1, 1)))
	require.NoError(t, g.AddEdge(b, c, NewEdge(true, 1, 1)))
	return g, a, b, c
}

func TestBaseGraphAddEdgeRejectsDuplicate(t *testing.T) {
	g, a, b, _ := linearRefGraph(t)
	err := g.AddEdge(a, b, NewEdge(false, 1, 1))
	assert.Error(t, err)
}

func TestBaseGraphAddOrUpdateEdgeFoldsMultiplicity(t *testing.T) {
	g, a, b, _ := linearRefGraph(t)
	require.NoError(t, g.AddOrUpdateEdge(a, b, NewEdge(false, 4, 1)))
	e := g.GetEdge(a, b)
	assert.Equal(t, uint64(5), e.Multiplicity())
	assert.True(t, e.IsRef())
}

func TestBaseGraphInOutDegreeAndRemoveVertex(t *testing.T) {
	g, a, b, c := linearRefGraph(t)
	assert.Equal(t, 0, g.InDegree(a))
	assert.Equal(t, 1, g.OutDegree(a))
	assert.Equal(t, 1, g.InDegree(b))
	assert.Equal(t, 1, g.OutDegree(b))

	assert.True(t, g.RemoveVertex(b))
	assert.False(t, g.ContainsVertex(b))
	assert.Nil(t, g.GetEdge(a, b))
	assert.Nil(t, g.GetEdge(b, c))
	assert.False(t, g.RemoveVertex(b))
}

func TestBaseGraphRefSourceAndSink(t *testing.T) {
	g, a, b, c := linearRefGraph(t)
	assert.True(t, g.IsRefSource(a))
	assert.False(t, g.IsRefSource(b))
	assert.True(t, g.IsRefSink(c))
	assert.False(t, g.IsRefSink(b))
	assert.True(t, g.IsReferenceNode(b))

	assert.Equal(t, a, g.ReferenceSourceVertex())
	assert.Equal(t, c, g.ReferenceSinkVertex())
}

func TestBaseGraphNextReferenceVertex(t *testing.T) {
	g, a, b, c := linearRefGraph(t)
	assert.Equal(t, b, g.NextReferenceVertex(a, false, nil))
	assert.Equal(t, c, g.NextReferenceVertex(b, false, nil))
	assert.Nil(t, g.NextReferenceVertex(c, false, nil))

	// branch off of b with a non-ref edge; with no ref edge out of d,
	// allowNonRefPaths should follow the single remaining non-blacklisted edge.
	d := NewVertex([]byte("TAA"))
	g.AddVertex(d)
	nonRef := NewEdge(false, 1, 1)
	require.NoError(t, g.AddEdge(b, d, nonRef))
	assert.Nil(t, g.NextReferenceVertex(d, false, nil))

	e := NewVertex([]byte("AAC"))
	g.AddVertex(e)
	require.NoError(t, g.AddEdge(d, e, NewEdge(false, 1, 1)))
	assert.Equal(t, e, g.NextReferenceVertex(d, true, nil))
}

func TestBaseGraphHasCycle(t *testing.T) {
	g, a, _, c := linearRefGraph(t)
	assert.False(t, g.HasCycle())

	require.NoError(t, g.AddEdge(c, a, NewEdge(false, 1, 1)))
	assert.True(t, g.HasCycle())
}

func TestBaseGraphPruneLowWeightChains(t *testing.T) {
	g, a, b, _ := linearRefGraph(t)
	weak := NewVertex([]byte("TTT"))
	g.AddVertex(weak)
	require.NoError(t, g.AddEdge(a, weak, NewEdge(false, 1, 1)))

	g.PruneLowWeightChains(2)

	assert.Nil(t, g.GetEdge(a, weak))
	assert.False(t, g.ContainsVertex(weak))
	// the reference chain must survive pruning regardless of weight.
	assert.NotNil(t, g.GetEdge(a, b))
}

func TestBaseGraphRemovePathsNotConnectedToRef(t *testing.T) {
	g, a, _, c := linearRefGraph(t)
	dangling := NewVertex([]byte("TTT"))
	g.AddVertex(dangling)
	require.NoError(t, g.AddEdge(a, dangling, NewEdge(false, 1, 1)))

	require.NoError(t, g.RemovePathsNotConnectedToRef())

	assert.False(t, g.ContainsVertex(dangling))
	assert.True(t, g.ContainsVertex(a))
	assert.True(t, g.ContainsVertex(c))
	assert.Len(t, g.Sources(), 1)
	assert.Len(t, g.Sinks(), 1)
}

func TestBaseGraphSubsetToNeighbors(t *testing.T) {
	g, a, b, c := linearRefGraph(t)
	sub, err := g.SubsetToNeighbors(b, 1)
	require.NoError(t, err)
	assert.True(t, sub.ContainsVertex(a))
	assert.True(t, sub.ContainsVertex(b))
	assert.True(t, sub.ContainsVertex(c))
	assert.Len(t, sub.Vertices(), 3)
}

func TestBaseGraphConvertToSequenceGraph(t *testing.T) {
	g, _, _, _ := linearRefGraph(t)
	seqGraph, err := g.ConvertToSequenceGraph()
	require.NoError(t, err)

	var total []byte
	for _, v := range seqGraph.Vertices() {
		total = append(total, v.Bases()...)
	}
	assert.Equal(t, 3, len(seqGraph.Vertices()))
	assert.Equal(t, 5, len(total)) // ACG + T + A, the collapsed kmer walk
}

func TestBaseGraphWriteDOT(t *testing.T) {
	g, _, _, _ := linearRefGraph(t)
	var buf bytes.Buffer
	require.NoError(t, g.WriteDOT(&buf, 0))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph assemblyGraphs {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "color=red")
}

func TestGraphsEqual(t *testing.T) {
	g1, _, _, _ := linearRefGraph(t)
	g2, _, _, _ := linearRefGraph(t)
	assert.True(t, GraphsEqual(g1, g2))

	extra := NewVertex([]byte("TTT"))
	g2.AddVertex(extra)
	assert.False(t, GraphsEqual(g1, g2))
}

// TestBaseGraphRemoveVertexFnWiring confirms that pruning routines invoked
// through the embedded *BaseGraph still reach ReadThreadingGraph's override,
// so uniqueKmers stays in sync after a sweep removes a vertex.
func TestBaseGraphRemoveVertexFnWiring(t *testing.T) {
	g, err := NewReadThreadingGraph(3, false, 10, 1)
	require.NoError(t, err)

	bases := []byte("ACGTACG")
	require.NoError(t, g.AddSequence("ref", anonymousSampleName(), bases, 0, len(bases), 1, true))
	require.NoError(t, g.BuildGraphIfNecessary())

	// GTA is registered in uniqueKmers; detach it so the sweep removes it.
	lone := findVertex(g, "GTA")
	require.NotNil(t, lone)
	require.Equal(t, lone, g.uniqueKmers["GTA"])
	for _, ee := range g.IncomingEdges(lone) {
		g.RemoveEdge(ee.Source, ee.Target)
	}
	for _, ee := range g.OutgoingEdges(lone) {
		g.RemoveEdge(ee.Source, ee.Target)
	}

	before := 0
	for range g.uniqueKmers {
		before++
	}

	g.removeSingletonOrphanVertices()

	assert.False(t, g.ContainsVertex(lone))
	_, stillTracked := g.uniqueKmers["GTA"]
	assert.False(t, stillTracked)
	assert.Equal(t, before-1, len(g.uniqueKmers))
	for _, v := range g.uniqueKmers {
		assert.True(t, g.ContainsVertex(v))
	}
}
