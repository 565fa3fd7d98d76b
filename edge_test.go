package debruijn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgePruningMultiplicityBeforeFullRing(t *testing.T) {
	e := NewEdge(false, 0, 3)
	e.IncMultiplicity(5)
	// only one sample observed so far (of a 3-deep ring): pruning multiplicity
	// falls back to the combined total.
	assert.Equal(t, uint64(5), e.PruningMultiplicity())
}

func TestEdgePruningMultiplicityIsMinAcrossSamples(t *testing.T) {
	e := NewEdge(false, 0, 3)
	e.IncMultiplicity(5)
	e.FlushSingleSampleMultiplicity()
	e.IncMultiplicity(2)
	e.FlushSingleSampleMultiplicity()
	e.IncMultiplicity(9)

	assert.Equal(t, uint64(2), e.PruningMultiplicity())
	assert.Equal(t, uint64(16), e.Multiplicity())
}

func TestEdgeAddFoldsPruningSlots(t *testing.T) {
	a := NewEdge(false, 3, 2)
	b := NewEdge(true, 4, 2)
	a.Add(b)

	assert.Equal(t, uint64(7), a.Multiplicity())
	assert.True(t, a.IsRef())
	assert.Equal(t, []uint64{7, 0}, a.pruning)
}
