package debruijn

import farm "github.com/dgryski/go-farm"

// KmerCounter maps kmers to 64-bit counts. It is used to detect kmers that
// repeat within a single sequence (non-unique kmers are not safe anchors for
// threading, since merging into them would be ambiguous).
type KmerCounter struct {
	kmerSize int
	counts   map[string]uint64
	// repr keeps one representative Kmer per key, so
	// KmersWithCountAtLeast can hand back real Kmer values instead of raw
	// strings.
	repr map[string]Kmer
}

// NewKmerCounter creates a counter for kmers of the given size. presizeHint
// is typically the length of the sequence about to be scanned.
func NewKmerCounter(kmerSize int, presizeHint int) *KmerCounter {
	n := int(farm.Fingerprint64([]byte{byte(presizeHint), byte(presizeHint >> 8)})%8 + 1)
	initial := presizeHint / n
	if initial < 8 {
		initial = 8
	}
	return &KmerCounter{
		kmerSize: kmerSize,
		counts:   make(map[string]uint64, initial),
		repr:     make(map[string]Kmer, initial),
	}
}

// Add increments kmer's count by n.
func (c *KmerCounter) Add(kmer Kmer, n uint64) {
	key := kmer.key()
	c.counts[key] += n
	if _, ok := c.repr[key]; !ok {
		c.repr[key] = kmer
	}
}

// KmersWithCountAtLeast returns every kmer with count >= n, in unspecified
// order.
func (c *KmerCounter) KmersWithCountAtLeast(n uint64) []Kmer {
	var result []Kmer
	for key, count := range c.counts {
		if count >= n {
			result = append(result, c.repr[key])
		}
	}
	return result
}
