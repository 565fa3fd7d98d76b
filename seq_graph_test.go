package debruijn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqGraphFromReadThreadingGraph(t *testing.T) {
	g, err := NewReadThreadingGraph(3, false, 10, 1)
	require.NoError(t, err)
	ref := []byte("ACGTGCA")
	require.NoError(t, g.AddSequence("ref", anonymousSampleName(), ref, 0, len(ref), 1, true))
	require.NoError(t, g.BuildGraphIfNecessary())

	seqGraph, err := g.ConvertToSequenceGraph()
	require.NoError(t, err)

	var total []byte
	for _, v := range seqGraph.Vertices() {
		total = append(total, v.Bases()...)
	}
	assert.Len(t, total, len(ref))
	assert.Len(t, seqGraph.Vertices(), 5)
	assert.Len(t, seqGraph.Sources(), 1)
	assert.Len(t, seqGraph.Sinks(), 1)

	bytes, err := seqGraph.ReferenceBytes(seqGraph.ReferenceSourceVertex(), seqGraph.ReferenceSinkVertex(), true, true)
	require.NoError(t, err)
	assert.Equal(t, string(ref), string(bytes))
}
