package debruijn

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKmerCounterAddAndQuery(t *testing.T) {
	c := NewKmerCounter(3, 16)

	c.Add(NewKmer([]byte("ACG")), 1)
	c.Add(NewKmer([]byte("ACG")), 1)
	c.Add(NewKmer([]byte("CGT")), 1)

	atLeastTwo := c.KmersWithCountAtLeast(2)
	if len(atLeastTwo) != 1 {
		t.Fatalf("expected exactly one kmer with count >= 2, got %d", len(atLeastTwo))
	}
	assert.Equal(t, "ACG", atLeastTwo[0].String())

	atLeastOne := c.KmersWithCountAtLeast(1)
	var strs []string
	for _, k := range atLeastOne {
		strs = append(strs, k.String())
	}
	sort.Strings(strs)
	assert.Equal(t, []string{"ACG", "CGT"}, strs)
}

func TestKmerCounterNonUniqueInRepeatedSequence(t *testing.T) {
	// ATATATAT at k=3 has every kmer appearing more than once: ATA, TAT, ATA, TAT, ATA, TAT.
	bases := []byte("ATATATAT")
	k := 3
	c := NewKmerCounter(k, len(bases))
	for i := 0; i+k <= len(bases); i++ {
		kmer, err := NewKmerWindow(bases, i, k)
		if err != nil {
			t.Fatal(err)
		}
		c.Add(kmer, 1)
	}

	nonUnique := c.KmersWithCountAtLeast(2)
	var strs []string
	for _, kmer := range nonUnique {
		strs = append(strs, kmer.String())
	}
	sort.Strings(strs)
	assert.Equal(t, []string{"ATA", "TAT"}, strs)
}
