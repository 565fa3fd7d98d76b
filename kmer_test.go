package debruijn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKmerHash(t *testing.T) {
	tests := []struct {
		bases string
		want  uint64
	}{
		{"A", 1*31 + 'A'},
		{"AC", (1*31+'A')*31 + 'C'},
		{"", 1},
	}
	for _, test := range tests {
		k := NewKmer([]byte(test.bases))
		assert.Equal(t, test.want, k.Hash())
	}
}

func TestNewKmerWindowBounds(t *testing.T) {
	bases := []byte("ACGTACGT")

	_, err := NewKmerWindow(bases, -1, 3)
	assert.Error(t, err)

	_, err = NewKmerWindow(bases, 0, -1)
	assert.Error(t, err)

	_, err = NewKmerWindow(bases, 6, 4)
	assert.Error(t, err)

	k, err := NewKmerWindow(bases, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, "ACG", k.String())
}

func TestKmerSub(t *testing.T) {
	k := NewKmer([]byte("ACGTACGT"))
	sub, err := k.Sub(1, 3)
	require.NoError(t, err)
	assert.Equal(t, "CGT", sub.String())
}

func TestKmerEqual(t *testing.T) {
	a := NewKmer([]byte("ACGT"))
	b, err := NewKmerWindow([]byte("TTACGTTT"), 2, 4)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c := NewKmer([]byte("ACGA"))
	assert.False(t, a.Equal(c))
}

func TestKmerBasesMaterializes(t *testing.T) {
	buf := []byte("TTACGTTT")
	k, err := NewKmerWindow(buf, 2, 4)
	require.NoError(t, err)

	materialized := k.Bases()
	assert.Equal(t, "ACGT", string(materialized))

	// mutating the original backing array must not affect the materialized copy.
	buf[2] = 'X'
	assert.Equal(t, "ACGT", string(k.Bases()))
}

func TestKmerDifferingPositions(t *testing.T) {
	a := NewKmer([]byte("ACGTACGT"))
	b := NewKmer([]byte("ACGAACGA"))

	idx := make([]int, 4)
	bases := make([]byte, 4)

	dist := a.DifferingPositions(b, 3, idx, bases)
	require.Equal(t, 2, dist)
	assert.Equal(t, []int{3, 7}, idx[:dist])
	assert.Equal(t, []byte{'A', 'A'}, bases[:dist])

	dist = a.DifferingPositions(b, 1, idx, bases)
	assert.Equal(t, -1, dist)

	diffLength := NewKmer([]byte("ACG"))
	assert.Equal(t, -1, a.DifferingPositions(diffLength, 8, idx, bases))
}
